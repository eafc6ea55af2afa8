// cmd/tools/filecheck/main.go
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"submission-intake/internal/common/errors"
	"submission-intake/internal/common/logger"
	"submission-intake/internal/models"
	"submission-intake/internal/pipeline/fileguard"
)

var extensionTypes = map[string]string{
	".pdf":  fileguard.MimePDF,
	".doc":  fileguard.MimeDOC,
	".docx": fileguard.MimeDOCX,
}

type result struct {
	Path   string
	Format models.FileFormat
	Reason string
	Err    error
}

func (r result) ok() bool { return r.Reason == "" && r.Err == nil }

func main() {
	checkCmd := flag.NewFlagSet("check", flag.ExitOnError)
	maxSize := checkCmd.Int64("max-size", fileguard.DefaultMaxFileSize, "Maximum file size in bytes")
	strict := checkCmd.Bool("strict", false, "Require the content to match the declared type exactly")
	declared := checkCmd.String("type", "", "Declared MIME type (default: derived from the file extension)")
	verbose := checkCmd.Bool("v", false, "Log guard decisions to stderr")

	sniffCmd := flag.NewFlagSet("sniff", flag.ExitOnError)

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "check":
		checkCmd.Parse(os.Args[2:])
		if checkCmd.NArg() == 0 {
			fmt.Println("Error: at least one file is required.")
			checkCmd.Usage()
			os.Exit(1)
		}
		cfg := fileguard.DefaultConfig()
		cfg.MaxFileSize = *maxSize
		cfg.StrictTypeMatch = *strict
		if err := cfg.Validate(); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		log := logger.NewNoOpLogger()
		if *verbose {
			log = logger.NewStructured("debug", "console")
		}
		guard := fileguard.NewGuard(cfg, log)

		failed := false
		for _, path := range checkCmd.Args() {
			r := checkFile(guard, path, *declared)
			printResult(os.Stdout, r)
			failed = failed || !r.ok()
		}
		if failed {
			os.Exit(1)
		}

	case "sniff":
		sniffCmd.Parse(os.Args[2:])
		for _, path := range sniffCmd.Args() {
			content, err := readHead(path, 8)
			if err != nil {
				fmt.Printf("%s\terror: %v\n", path, err)
				continue
			}
			fmt.Printf("%s\t%s\n", path, fileguard.Sniff(content))
		}

	default:
		help()
		os.Exit(1)
	}
}

// checkFile runs the guard over a local file the way the upload endpoint
// would for a part declared with mimeType.
func checkFile(guard *fileguard.Guard, path, mimeType string) result {
	content, err := os.ReadFile(path)
	if err != nil {
		return result{Path: path, Err: err}
	}
	if mimeType == "" {
		mimeType = extensionTypes[strings.ToLower(filepath.Ext(path))]
	}

	file := &models.UploadedFile{
		Field:            "file",
		Filename:         filepath.Base(path),
		DeclaredMimeType: mimeType,
		SizeBytes:        int64(len(content)),
		Content:          content,
	}
	if err := guard.Check(file); err != nil {
		r := result{Path: path, Err: err}
		if reason, ok := errors.AsStandardError(err).Metadata["reason"].(string); ok {
			r.Reason = reason
		}
		return r
	}
	return result{Path: path, Format: file.VerifiedFormat}
}

func printResult(w io.Writer, r result) {
	switch {
	case r.ok():
		fmt.Fprintf(w, "OK\t%s\t%s\n", r.Path, r.Format)
	case r.Reason != "":
		fmt.Fprintf(w, "REJECTED\t%s\t%s: %s\n", r.Path, r.Reason, errors.AsStandardError(r.Err).Message)
	default:
		fmt.Fprintf(w, "ERROR\t%s\t%v\n", r.Path, r.Err)
	}
}

func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:read], nil
}

func help() {
	fmt.Println("Usage: filecheck <command> [options] <files>")
	fmt.Println("Commands:")
	fmt.Println("  check   Run the upload file guard against local files")
	fmt.Println("  sniff   Print the format detected from each file's leading bytes")
}
