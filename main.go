package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gonewx/skelpose/pkg/app"
	"github.com/gonewx/skelpose/pkg/config"
	"github.com/gonewx/skelpose/pkg/embedded"
	"github.com/hajimehoshi/ebiten/v2"
)

// defaultConfigPath 内嵌的默认引擎配置
const defaultConfigPath = "data/engine.yaml"

func main() {
	configPath := flag.String("config", "", "engine config file (default: embedded data/engine.yaml)")
	setName := flag.String("set", "", "descriptor set to show first")
	skeletonID := flag.String("skeleton", "", "skeleton to show first (its set is looked up)")
	animation := flag.String("animation", "", "animation to play first")
	watch := flag.Bool("watch", false, "read descriptors from disk and reload them on change")
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	flag.Parse()

	embedded.Init(dataFS)
	embeddedFS, err := embedded.FS()
	if err != nil {
		log.Fatalf("Failed to access embedded data: %v", err)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *watch {
		cfg.Assets.Embedded = false
		cfg.Assets.Watch = true
	}

	viewer, err := app.NewApp(app.Config{
		Verbose:    *verbose,
		Engine:     *cfg,
		EmbeddedFS: embeddedFS,
		SetName:    *setName,
		Skeleton:   *skeletonID,
		Animation:  *animation,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "skelpose: %v\n", err)
		os.Exit(1)
	}
	defer viewer.Close()

	ebiten.SetWindowSize(cfg.Viewer.Width, cfg.Viewer.Height)
	ebiten.SetWindowTitle("skelpose viewer")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cfg.Playback.TPS)

	if err := ebiten.RunGame(viewer); err != nil {
		fmt.Fprintf(os.Stderr, "skelpose: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig path 为空时使用内嵌的默认配置，没有内嵌配置时使用默认值
func loadConfig(path string) (*config.EngineConfig, error) {
	if path != "" {
		return config.LoadEngineConfig(path)
	}
	if !embedded.Exists(defaultConfigPath) {
		cfg := config.DefaultEngineConfig()
		return &cfg, nil
	}
	data, err := embedded.ReadFile(defaultConfigPath)
	if err != nil {
		return nil, err
	}
	return config.ParseEngineConfig(data)
}
