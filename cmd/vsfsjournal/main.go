// Command vsfsjournal is the thin CLI front end over internal/txn and
// internal/format. Argument parsing itself is an explicit non-goal of
// this project (spec §1 lists "the command-line front-end and argument
// parsing" as out of scope); this file exists only to give the core
// packages a runnable entry point, in the style the teacher reserves for
// its own CLI wrappers: a handful of flag.FlagSet subcommands and
// logrus for diagnostics.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/trustelem/vsfsjournal/internal/device"
	"github.com/trustelem/vsfsjournal/internal/format"
	"github.com/trustelem/vsfsjournal/internal/txn"
	"github.com/trustelem/vsfsjournal/internal/vsfs"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		usage()
		return 1
	}

	log := logrus.WithField("command", args[0])

	switch args[0] {
	case "info":
		return cmdInfo(log, args[1:])
	case "create":
		return cmdCreate(log, args[1:])
	case "install":
		return cmdInstall(log, args[1:])
	case "format":
		return cmdFormat(log, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		usage()
		return 1
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: vsfsjournal <command> [args...] [image-path]")
	fmt.Fprintln(os.Stderr, "Commands: info <image> | create <name> <image> | install <image> | format <image>")
}

func openDevice(log *logrus.Entry, path string) (*device.Device, *vsfs.Superblock, func(), error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open image: %w", err)
	}
	dev, err := device.Open(f)
	if err != nil {
		f.Close()
		return nil, nil, nil, err
	}
	if err := dev.Lock(); err != nil {
		dev.Close()
		return nil, nil, nil, err
	}
	sb, err := vsfs.ReadSuperblock(dev)
	if err != nil {
		dev.Close()
		return nil, nil, nil, err
	}
	return dev, sb, func() { dev.Close() }, nil
}

func cmdInfo(log *logrus.Entry, args []string) int {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: vsfsjournal info <image-path>")
		return 1
	}
	image := fs.Arg(0)
	log = log.WithField("image", image)

	dev, sb, closeFn, err := openDevice(log, image)
	if err != nil {
		log.WithError(err).Error("info failed")
		return 1
	}
	defer closeFn()

	report, err := txn.Info(dev, sb)
	if err != nil {
		log.WithError(err).Error("info failed")
		return 1
	}

	fmt.Printf("Filesystem Info:\n")
	fmt.Printf("  Magic: 0x%X\n", report.Superblock.Magic)
	fmt.Printf("  Block size: %d\n", report.Superblock.BlockSize)
	fmt.Printf("  Total Blocks: %d\n", report.Superblock.TotalBlocks)
	fmt.Printf("  Inode Count: %d\n", report.Superblock.InodeCount)
	fmt.Printf("  Journal Block: %d\n", report.Superblock.JournalBlock)
	fmt.Printf("  Inode Bitmap Block: %d\n", report.Superblock.InodeBitmap)
	fmt.Printf("  Data Bitmap Block: %d\n", report.Superblock.DataBitmap)
	fmt.Printf("  Inode Start Block: %d\n", report.Superblock.InodeStart)
	fmt.Printf("  Data Start Block: %d\n", report.Superblock.DataStart)
	fmt.Printf("  Volume UUID: %s\n", report.Superblock.VolumeUUID)
	fmt.Printf("\nBitmap Analysis:\n")
	fmt.Printf("  Used Inodes: %d / %d\n", report.UsedInodes, report.Superblock.InodeCount)
	if report.HasFirstFree {
		fmt.Printf("  First Free Inode: %d\n", report.FirstFree)
	} else {
		fmt.Printf("  First Free Inode: none\n")
	}
	fmt.Printf("\nRoot Directory Contents:\n")
	for i, d := range report.RootEntries {
		fmt.Printf("  [%d] inode=%d name=%q\n", i, d.Inode, d.NameString())
	}
	return 0
}

func cmdCreate(log *logrus.Entry, args []string) int {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.Parse(args)
	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: vsfsjournal create <name> <image-path>")
		return 1
	}
	name, image := fs.Arg(0), fs.Arg(1)
	log = log.WithFields(logrus.Fields{"image": image, "name": name})

	dev, sb, closeFn, err := openDevice(log, image)
	if err != nil {
		log.WithError(err).Error("create failed")
		return 1
	}
	defer closeFn()

	if err := txn.Create(dev, sb, name); err != nil {
		log.WithError(err).Error("create failed")
		return 1
	}
	fmt.Printf("File %q created successfully (pending install)\n", name)
	return 0
}

func cmdInstall(log *logrus.Entry, args []string) int {
	fs := flag.NewFlagSet("install", flag.ContinueOnError)
	fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: vsfsjournal install <image-path>")
		return 1
	}
	image := fs.Arg(0)
	log = log.WithField("image", image)

	dev, sb, closeFn, err := openDevice(log, image)
	if err != nil {
		log.WithError(err).Error("install failed")
		return 1
	}
	defer closeFn()

	outcome, err := txn.Install(dev, sb)
	if err != nil {
		log.WithError(err).Error("install failed")
		return 1
	}
	switch outcome {
	case txn.InstallEmpty:
		fmt.Println("Journal is empty, nothing to install.")
	case txn.InstallApplied:
		fmt.Println("Journal installed and cleared successfully.")
	}
	return 0
}

func cmdFormat(log *logrus.Entry, args []string) int {
	fs := flag.NewFlagSet("format", flag.ContinueOnError)
	inodeCount := fs.Uint("inodes", 32, "number of inodes")
	totalBlocks := fs.Uint("blocks", 64, "total blocks in the image")
	fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: vsfsjournal format [-inodes N] [-blocks N] <image-path>")
		return 1
	}
	image := fs.Arg(0)
	log = log.WithField("image", image)

	f, err := os.OpenFile(image, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		log.WithError(err).Error("format failed")
		return 1
	}
	defer f.Close()

	size := int64(*totalBlocks) * device.BlockSize
	if err := f.Truncate(size); err != nil {
		log.WithError(err).Error("format failed")
		return 1
	}

	dev, err := device.Open(f)
	if err != nil {
		log.WithError(err).Error("format failed")
		return 1
	}
	defer dev.Close()
	if err := dev.Lock(); err != nil {
		log.WithError(err).Error("format failed")
		return 1
	}

	if _, err := format.Create(dev, format.Params{
		TotalBlocks: uint32(*totalBlocks),
		InodeCount:  uint32(*inodeCount),
	}); err != nil {
		log.WithError(err).Error("format failed")
		return 1
	}
	fmt.Printf("Formatted %s: %d blocks, %d inodes\n", image, *totalBlocks, *inodeCount)
	return 0
}
