package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/grovetools/niribar/cli"
	"github.com/grovetools/niribar/logging"
	"github.com/grovetools/niribar/pkg/paths"
	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"
)

// TailedLine is one line of a component's log file.
type TailedLine struct {
	Component string
	Line      string
}

// NewLogsCmd creates the `logs` command.
func NewLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the log files written by niribar",
		Long: `Prints the newest log file of every component (serve, bus, cli, ...)
from the file sink enabled with logging.file.enabled.

Examples:
  # Follow the serve log
  niribar logs -f --component serve

  # Last 100 lines of every component
  niribar logs -n 100
`,
		Args: cobra.NoArgs,
		RunE: runLogsE,
	}

	cmd.Flags().BoolP("follow", "f", false, "Follow log output")
	cmd.Flags().IntP("lines", "n", 20, "Number of lines to show from the end of each file (-1: all)")
	cmd.Flags().StringSlice("component", nil, "Only show these components")
	return cmd
}

func runLogsE(cmd *cobra.Command, args []string) error {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return err
	}
	follow, _ := cmd.Flags().GetBool("follow")
	lines, _ := cmd.Flags().GetInt("lines")
	components, _ := cmd.Flags().GetStringSlice("component")

	var logCfg logging.Config
	if err := cfg.UnmarshalExtension("logging", &logCfg); err != nil {
		return err
	}

	files := map[string]string{}
	if logCfg.File.Path != "" {
		files["niribar"] = logCfg.File.Path
	} else {
		files, err = findLogFiles(paths.LogDir(), components)
		if err != nil {
			return err
		}
	}
	if len(files) == 0 {
		logging.NewPrettyLogger().WithWriter(cmd.ErrOrStderr()).
			Info(fmt.Sprintf("No log files in %s. Enable logging.file.enabled to write them.", paths.LogDir()))
		return nil
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	lineChan := make(chan TailedLine, 100)
	var wg sync.WaitGroup
	var tails []*tail.Tail
	for component, path := range files {
		offset, err := tailOffset(path, lines)
		if err != nil {
			return err
		}
		t, err := tail.TailFile(path, tail.Config{
			Follow:    follow,
			ReOpen:    follow,
			MustExist: true,
			Location:  &tail.SeekInfo{Offset: offset, Whence: io.SeekStart},
			Logger:    stdlog.New(io.Discard, "", 0),
		})
		if err != nil {
			return fmt.Errorf("failed to tail %s: %w", path, err)
		}
		tails = append(tails, t)

		wg.Add(1)
		go func(component string, t *tail.Tail) {
			defer wg.Done()
			for line := range t.Lines {
				if line.Err != nil {
					continue
				}
				lineChan <- TailedLine{Component: component, Line: line.Text}
			}
		}(component, t)
	}

	go func() {
		<-ctx.Done()
		for _, t := range tails {
			t.Stop()
		}
	}()
	go func() {
		wg.Wait()
		close(lineChan)
	}()

	out := cmd.OutOrStdout()
	asJSON := cli.GetOptions(cmd).JSONOutput
	for tl := range lineChan {
		printLogLine(out, tl, asJSON)
	}
	for _, t := range tails {
		t.Cleanup()
	}
	return nil
}

// findLogFiles returns the newest `<component>-<date>.log` file per
// component in dir.
func findLogFiles(dir string, only []string) (map[string]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.log"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	want := map[string]bool{}
	for _, c := range only {
		want[c] = true
	}

	files := map[string]string{}
	for _, path := range matches {
		component := componentFromLogName(filepath.Base(path))
		if len(want) > 0 && !want[component] {
			continue
		}
		// Dates sort lexically, so the last match is the newest.
		files[component] = path
	}
	return files, nil
}

// componentFromLogName strips the `-YYYY-MM-DD.log` suffix.
func componentFromLogName(name string) string {
	name = strings.TrimSuffix(name, ".log")
	const dateLen = len("-2006-01-02")
	if len(name) > dateLen && name[len(name)-dateLen] == '-' {
		return name[:len(name)-dateLen]
	}
	return name
}

// tailOffset returns the byte offset of the n-th line from the end of the
// file. n < 0 means the start of the file.
func tailOffset(path string, n int) (int64, error) {
	if n < 0 {
		return 0, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var starts []int64
	var pos int64
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			starts = append(starts, pos)
			pos += int64(len(line))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if n >= len(starts) {
		return 0, nil
	}
	if n == 0 {
		return pos, nil
	}
	return starts[len(starts)-n], nil
}

// printLogLine renders a JSON log entry as a styled line and prints text
// entries unchanged.
func printLogLine(w io.Writer, tl TailedLine, asJSON bool) {
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(tl.Line), &entry); err != nil {
		if asJSON {
			data, _ := json.Marshal(map[string]interface{}{"component": tl.Component, "raw_line": tl.Line})
			fmt.Fprintln(w, string(data))
			return
		}
		fmt.Fprintf(w, "%s %s\n", cli.DefaultTheme.Accent.Render(tl.Component), tl.Line)
		return
	}

	if asJSON {
		if _, ok := entry["component"]; !ok {
			entry["component"] = tl.Component
		}
		data, _ := json.Marshal(entry)
		fmt.Fprintln(w, string(data))
		return
	}

	t := cli.DefaultTheme
	component := tl.Component
	if c, ok := entry["component"].(string); ok {
		component = c
	}
	level, _ := entry["level"].(string)
	msg, _ := entry["msg"].(string)
	ts, _ := entry["time"].(string)

	var keys []string
	for k := range entry {
		switch k {
		case "component", "level", "msg", "time":
		default:
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	if ts != "" {
		b.WriteString(t.Muted.Render(ts) + " ")
	}
	b.WriteString(t.LevelStyle(level).Render(strings.ToUpper(level)) + " ")
	b.WriteString(t.Accent.Render("["+component+"]") + " ")
	b.WriteString(msg)
	for _, k := range keys {
		b.WriteString(" " + t.Muted.Render(k+"=") + fmt.Sprint(entry[k]))
	}
	fmt.Fprintln(w, b.String())
}
