//go:build ignore

// build.go - VaxPulse build script
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: all, web, report, test, clean

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const versionPkg = "vaxpulse/pkg/contracts"

// executables maps a cmd/ directory to its output name.
var executables = map[string]string{
	"web":    "vaxpulse-web",
	"report": "vaxreport",
}

var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	distDir     = "dist"
	commandDirs = map[string]string{
		"web":    "./cmd/vaxpulse-web",
		"report": "./cmd/vaxreport",
	}
)

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	fmt.Println(colorCyan + "=====================================" + colorReset)
	fmt.Println(colorCyan + "       VaxPulse - Build System       " + colorReset)
	fmt.Println(colorCyan + "=====================================" + colorReset)

	start := time.Now()
	switch *target {
	case "all":
		for name := range executables {
			buildExecutable(name, *verbose)
		}
	case "web", "report":
		buildExecutable(*target, *verbose)
	case "test":
		run(*verbose, "go", "test", "-race", "./...")
	case "clean":
		printInfo("Removing " + distDir)
		if err := os.RemoveAll(distDir); err != nil {
			printError(err.Error())
			os.Exit(1)
		}
	default:
		fmt.Println("Targets: all, web, report, test, clean")
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(start).Round(time.Millisecond)))
}

func buildExecutable(name string, verbose bool) {
	exeName := executables[name]
	if runtime.GOOS == "windows" {
		exeName += ".exe"
	}
	printInfo(fmt.Sprintf("Building %s...", exeName))

	ldflags := fmt.Sprintf("-s -w -X %s.BuildTime=%s -X %s.GitCommit=%s",
		versionPkg, time.Now().UTC().Format(time.RFC3339),
		versionPkg, gitCommit())

	outputPath := filepath.Join(distDir, exeName)
	args := []string{"build", "-ldflags", ldflags, "-o", outputPath, commandDirs[name]}
	if verbose {
		args = append([]string{"build", "-v"}, args[1:]...)
	}
	run(verbose, "go", args...)

	if info, err := os.Stat(outputPath); err == nil {
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", exeName, float64(info.Size())/1024/1024))
	}
}

// gitCommit returns the short HEAD hash, or "unknown" outside a checkout.
func gitCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

func run(verbose bool, name string, args ...string) {
	cmd := exec.Command(name, args...)
	if verbose {
		fmt.Printf("Running: %s %s\n", name, strings.Join(args, " "))
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("%s %s failed: %v", name, args[0], err))
		os.Exit(1)
	}
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}
