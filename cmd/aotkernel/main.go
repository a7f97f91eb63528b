package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch cmd := os.Args[1]; cmd {
	case "gendata":
		err = RunGendataCommand(os.Args[2:])
	case "compile":
		err = RunCompileCommand(ctx, os.Args[2:])
	case "run":
		err = RunRunCommand(ctx, os.Args[2:])
	case "all":
		err = RunAllCommand(ctx, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  aotkernel [command] [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  gendata   Write random a.csv and b.csv operands")
	fmt.Println("  compile   AOT compile, link and build the matmul test binary; prints the work dir")
	fmt.Println("  run       Run a compiled test binary on csv operands")
	fmt.Println("  all       gendata, compile and run in one go")
	fmt.Println("  help      Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  aotkernel gendata -dir=data -M=16 -N=16 -K=16")
	fmt.Println("  aotkernel compile -dtype=fp16 -BM=16 -BN=16 -BK=16 -M=16 -N=16 -K=16")
	fmt.Println("  aotkernel run -dir=/tmp/aotkernel-123 -a=data/a.csv -b=data/b.csv -c=data/c.csv")
	fmt.Println("  aotkernel all -data=data -verify")
	fmt.Println()
}
