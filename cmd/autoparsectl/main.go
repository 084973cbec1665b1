// autoparsectl is a CLI tool for a running autoparse server.
// Each command performs a single operation, making it composable for scripts.
//
// Commands:
//
//	autoparsectl list [-server URL] [-q]
//	autoparsectl all [-server URL] [-q]
//	autoparsectl docx [-server URL] [-o FILE]
//
// Examples:
//
//	autoparsectl list
//	for id in $(autoparsectl list -q); do echo "$id"; done
//	autoparsectl docx -o ~/Desktop/today.docx
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dunglas/httpsfv"
)

var client = &http.Client{Timeout: 5 * time.Minute}

// Global flags (apply to all commands)
var (
	serverURL string
	quiet     bool
	noColor   bool
	verbose   bool
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen, colorYellow = "", "", "", ""
	colorCyan, colorGray, colorBold = "", "", ""
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "list":
		runList(args, "/orders")
	case "all":
		runList(args, "/orders/all")
	case "docx":
		runDocx(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `autoparsectl - order worklist client

Usage:
  autoparsectl <command> [options]

Commands:
  list   List processing orders without track & trace
  all    List every processing order
  docx   Generate today's order document and save it locally

Examples:
  # Show what still needs a label
  autoparsectl list

  # Order numbers only, one per line
  autoparsectl list -q

  # Download the document
  autoparsectl docx -o orders.docx

Run 'autoparsectl <command> -h' for command-specific options.
`)
}

// commonFlags registers the flags every command accepts.
func commonFlags(fs *flag.FlagSet) {
	defaultURL := os.Getenv("AUTOPARSE_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}
	fs.StringVar(&serverURL, "server", defaultURL, "autoparse server base URL (env AUTOPARSE_URL)")
	fs.BoolVar(&quiet, "q", false, "Quiet mode - minimal output")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose - show full response")
}

// =============================================================================
// LIST COMMANDS
// =============================================================================

// orderView is the subset of an order the CLI prints.
type orderView struct {
	ID           int64  `json:"id"`
	Status       string `json:"status"`
	CustomerNote string `json:"customer_note"`
	LineItems    []struct {
		Name string `json:"name"`
	} `json:"line_items"`
}

func runList(args []string, path string) {
	fs := flag.NewFlagSet(strings.TrimPrefix(path, "/"), flag.ExitOnError)
	commonFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: autoparsectl %s [options]\n\nOptions:\n", os.Args[1])
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if noColor {
		disableColors()
	}

	resp, body, err := doRequest("GET", path)
	if err != nil {
		fatal("Failed to list orders: %v", err)
	}

	var orders []orderView
	if err := json.Unmarshal(body, &orders); err != nil {
		fatal("Failed to parse orders: %v", err)
	}

	if quiet {
		for _, o := range orders {
			fmt.Println(o.ID)
		}
		return
	}

	if summary := resp.Header.Get("Worklist-Summary"); summary != "" {
		printSummary(summary)
	}

	printSuccess("%d orders", len(orders))
	for _, o := range orders {
		item := ""
		if len(o.LineItems) > 0 {
			item = o.LineItems[0].Name
		}
		fmt.Printf("  %s#%d%s  %s", colorCyan, o.ID, colorReset, item)
		if note := firstLine(o.CustomerNote); note != "" {
			fmt.Printf("  %s%q%s", colorGray, note, colorReset)
		}
		fmt.Println()
	}
}

// printSummary renders the Worklist-Summary dictionary.
func printSummary(header string) {
	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		printWarning("Unreadable Worklist-Summary header: %v", err)
		return
	}

	var parts []string
	for _, name := range dict.Names() {
		member, _ := dict.Get(name)
		if item, ok := member.(httpsfv.Item); ok {
			parts = append(parts, fmt.Sprintf("%s %v", name, item.Value))
		}
	}
	printInfo("%s", strings.Join(parts, ", "))
}

// =============================================================================
// DOCX COMMAND
// =============================================================================

func runDocx(args []string) {
	fs := flag.NewFlagSet("docx", flag.ExitOnError)
	commonFlags(fs)
	var output string
	fs.StringVar(&output, "o", "", "Output file (default: server-provided name in the current directory)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: autoparsectl docx [-o FILE] [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if noColor {
		disableColors()
	}

	resp, body, err := doRequest("GET", "/orders/docx")
	if err != nil {
		fatal("Failed to generate document: %v", err)
	}

	if output == "" {
		output = attachmentName(resp.Header.Get("Content-Disposition"))
	}

	if err := os.WriteFile(output, body, 0o644); err != nil {
		fatal("Failed to save document: %v", err)
	}

	if quiet {
		fmt.Println(output)
		return
	}
	printSuccess("Document saved")
	fmt.Printf("  File: %s%s%s (%d bytes)\n", colorCyan, output, colorReset, len(body))
}

// attachmentName extracts a safe file name from a Content-Disposition header.
func attachmentName(header string) string {
	const fallback = "orders.docx"
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return fallback
	}
	name := filepath.Base(params["filename"])
	if name == "." || name == "/" || name == "" {
		return fallback
	}
	return name
}

// =============================================================================
// HTTP HELPERS
// =============================================================================

// doRequest performs a request and returns the response with its body.
// Non-2xx responses are returned as errors carrying the server's message.
func doRequest(method, path string) (*http.Response, []byte, error) {
	reqURL := strings.TrimSuffix(serverURL, "/") + path
	req, err := http.NewRequest(method, reqURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}

	if !quiet {
		printRequest(method, path)
	}

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)

	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response: %w", err)
	}

	if !quiet {
		printResponse(resp, respBody, duration)
	}

	if resp.StatusCode >= 400 {
		return nil, nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, errorMessage(respBody))
	}

	return resp, respBody, nil
}

// errorMessage pulls code and message out of an error response body.
func errorMessage(body []byte) string {
	var errResp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Code == "" {
		return strings.TrimSpace(string(body))
	}
	return errResp.Error.Code + ": " + errResp.Error.Message
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func printRequest(method, path string) {
	fmt.Printf("\n%s▶ REQUEST%s %s%s %s%s\n", colorYellow, colorReset, colorBold, method, path, colorReset)
}

func printResponse(resp *http.Response, body []byte, duration time.Duration) {
	statusColor := colorGreen
	if resp.StatusCode >= 400 {
		statusColor = colorRed
	}
	fmt.Printf("\n%s◀ RESPONSE%s %s%d%s (%v)\n", colorCyan, colorReset, statusColor, resp.StatusCode, colorReset, duration)
	if verbose && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		printJSON(body, "  ")
	}
}

func printJSON(data []byte, prefix string) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, prefix, "  "); err != nil {
		fmt.Printf("%s%s\n", prefix, string(data))
		return
	}
	fmt.Println(pretty.String())
}

func printSuccess(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printWarning(format string, args ...interface{}) {
	fmt.Printf("%s⚠ %s%s\n", colorYellow, fmt.Sprintf(format, args...), colorReset)
}

func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s→ %s%s\n", colorGray, fmt.Sprintf(format, args...), colorReset)
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}
