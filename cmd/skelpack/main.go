// skelpack 把描述文件目录打包为 bbolt 资源文件
//
// 用法:
//
//	go run ./cmd/skelpack -dir data/sprites -out sprites.res
//	go run ./cmd/skelpack -out sprites.res -list
//	go run ./cmd/skelpack -out sprites.res -owner pirate
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gonewx/skelpose/pkg/assets"
)

var (
	descriptorsDir   string
	resourceFilePath string
	prune            bool
	listOnly         bool
	ownerOf          string
)

func parseFlags() {
	flag.StringVar(&descriptorsDir, "dir", "./data/sprites",
		"Directory with descriptor sets (*.yaml).")
	flag.StringVar(&resourceFilePath, "out", "./sprites.res",
		"Resource file to store descriptor sets in.")
	flag.BoolVar(&prune, "prune", false,
		"Delete sets from the resource file that are not in the directory.")
	flag.BoolVar(&listOnly, "list", false,
		"Only list the sets stored in the resource file.")
	flag.StringVar(&ownerOf, "owner", "",
		"Only print the set that packs the given skeleton id.")

	flag.Parse()
}

func main() {
	parseFlags()

	readOnly := listOnly || ownerOf != ""
	rf, err := assets.OpenResourceFile(resourceFilePath, readOnly)
	if err != nil {
		log.Fatalf("Failed to open resource file: %v", err)
	}
	defer rf.Close()

	switch {
	case ownerOf != "":
		owner, ok := rf.SkeletonOwner(ownerOf)
		if !ok {
			log.Fatalf("Skeleton '%s' is not packed in %s", ownerOf, resourceFilePath)
		}
		fmt.Println(owner)
		return
	case listOnly:
		if err := list(rf); err != nil {
			log.Fatalf("Failed to list resource file: %v", err)
		}
		return
	}

	src := assets.DirSource{FS: os.DirFS(descriptorsDir), Dir: "."}
	packed, removed, err := pack(rf, src, prune)
	if err != nil {
		log.Fatalf("Packing stopped after %d set(s): %v", packed, err)
	}

	fmt.Printf("packed %d set(s) from %s into %s", packed, descriptorsDir, resourceFilePath)
	if prune {
		fmt.Printf(", removed %d", removed)
	}
	fmt.Println()
}

// pack 写入来源中的所有集合
// prune 时先删除来源中已不存在的集合，重命名的集合才能重新认领它的骨骼
func pack(rf *assets.ResourceFile, src assets.Source, prune bool) (packed, removed int, err error) {
	if prune {
		removed, err = pruneMissing(rf, src)
		if err != nil {
			return 0, removed, fmt.Errorf("prune: %w", err)
		}
	}
	packed, err = rf.Pack(src)
	return packed, removed, err
}

// pruneMissing 删除资源文件中目录里已不存在的集合
func pruneMissing(rf *assets.ResourceFile, src assets.Source) (int, error) {
	wanted, err := src.List()
	if err != nil {
		return 0, err
	}
	keep := make(map[string]bool, len(wanted))
	for _, name := range wanted {
		keep[name] = true
	}

	stored, err := rf.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, name := range stored {
		if keep[name] {
			continue
		}
		if err := rf.Delete(name); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func list(rf *assets.ResourceFile) error {
	names, err := rf.List()
	if err != nil {
		return err
	}
	for _, name := range names {
		data, err := rf.Read(name)
		if err != nil {
			return err
		}
		fmt.Printf("%-20s %6d bytes\n", name, len(data))
	}
	return nil
}
