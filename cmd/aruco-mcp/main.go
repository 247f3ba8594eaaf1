package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/anthonynsimon/bild/imgio"

	"github.com/ironsheep/aruco-mcp/internal/config"
	"github.com/ironsheep/aruco-mcp/internal/detection"
	"github.com/ironsheep/aruco-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version, --help and --render
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("aruco-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		case "--render", "render":
			if err := render(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "render: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if cfg.Debug() {
		log.Printf("ArUco MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		log.Printf("Model size %g, focal length %g, %d decode workers", cfg.ModelSize, cfg.FocalLength, cfg.Workers)
		detection.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	srv := server.New(cfg)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func printUsage() {
	fmt.Println("aruco-mcp - MCP server for fiducial marker detection and pose estimation")
	fmt.Println()
	fmt.Println("Usage: aruco-mcp [options]")
	fmt.Println("       aruco-mcp --render ID FILE [CELL_SIZE]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println("  --render         Write the PNG bitmap of marker ID (0-1023) to FILE")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  ARUCO_MCP_LOG_LEVEL=debug      Enable debug logging")
	fmt.Println("  ARUCO_MCP_MODEL_SIZE=35        Default marker edge length for marker_pose")
	fmt.Println("  ARUCO_MCP_FOCAL_LENGTH=0       Default focal length in pixels (0 = image width)")
	fmt.Println("  ARUCO_MCP_WORKERS=1            Concurrent candidate decodes per detection")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

// render writes a marker bitmap: args are ID, output file and an optional
// cell size in pixels.
func render(args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("usage: aruco-mcp --render ID FILE [CELL_SIZE]")
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid marker ID %q: %w", args[0], err)
	}
	cellSize := 10
	if len(args) == 3 {
		if cellSize, err = strconv.Atoi(args[2]); err != nil {
			return fmt.Errorf("invalid cell size %q: %w", args[2], err)
		}
	}

	img, err := detection.Render(id, cellSize)
	if err != nil {
		return err
	}
	return imgio.Save(args[1], img, imgio.PNGEncoder())
}
