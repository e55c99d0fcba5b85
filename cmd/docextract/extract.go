package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docextract/internal/extract"
	"github.com/pdiddy/docextract/internal/pipeline"
	"github.com/pdiddy/docextract/internal/store"
	"github.com/pdiddy/docextract/pkg/types"
)

const filenamePrompt = "Enter the filename (with extension): "

var extractCmd = &cobra.Command{
	Use:   "extract [filename]",
	Short: "Extract content from one document",
	Long: `Extract reads the named file from the documents directory, pulls out its
text, hyperlinks, images, and tables, writes them under
<output-dir>/<FORMAT>/<name>/, and inserts one record into the database.

When no filename is given, extract prompts for one on standard input.
The local output and the database record are written independently: if the
database is unreachable the local files are still produced, and the command
exits non-zero.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	var filename string
	if len(args) == 1 {
		filename = args[0]
	} else {
		name, err := promptFilename(cmd.InOrStdin(), out)
		if err != nil {
			return err
		}
		filename = name
	}

	runner := pipeline.New(appConfig, appLogger, out)
	res, err := runner.Run(cmd.Context(), filename)
	if res == nil {
		return describeError(err, runner.Resolve(filename))
	}
	if err != nil {
		if res.OutputDir != "" {
			fmt.Fprintf(out, "Local output is available in %s\n", res.OutputDir)
		}
		return describeError(err, runner.Resolve(filename))
	}

	fmt.Fprintf(out, "Extraction complete: %s -> %s (record %s)\n",
		res.Document.SourceFile, res.OutputDir, res.Document.ID)
	return nil
}

// promptFilename asks for a filename and reads one line from in.
func promptFilename(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, filenamePrompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading filename: %w", err)
	}
	name := strings.TrimSpace(line)
	if name == "" {
		return "", errors.New("no filename given")
	}
	return name, nil
}

// describeError renders the three failure categories in user terms. Other
// errors are returned unchanged.
func describeError(err error, path string) error {
	var se *store.StorageError
	switch {
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return fmt.Errorf("unsupported file format: %s (supported: %s)", path, supportedExtensions())
	case errors.Is(err, extract.ErrFileNotFound):
		return fmt.Errorf("file not found: %s", path)
	case errors.As(err, &se):
		return fmt.Errorf("database error: %w", err)
	}
	return err
}

// supportedExtensions lists the accepted extensions, e.g. ".pdf, .docx, .pptx".
func supportedExtensions() string {
	formats := types.Formats()
	exts := make([]string, 0, len(formats))
	for _, f := range formats {
		exts = append(exts, "."+f.Extension())
	}
	return strings.Join(exts, ", ")
}
