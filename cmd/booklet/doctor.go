package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"

	booklet "github.com/alnah/go-wpbooklet"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string      `json:"status"` // "ready", "warnings", "errors"
	Chrome   chromeInfo  `json:"chrome"`
	Tool     toolInfo    `json:"pdf_command"`
	Content  contentInfo `json:"content"`
	Env      envInfo     `json:"environment"`
	System   systemInfo  `json:"system"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// toolInfo holds the external PDF command detection result.
type toolInfo struct {
	Name  string `json:"name"`
	Found bool   `json:"found"`
	Path  string `json:"path,omitempty"`
}

// contentInfo describes the content directory.
type contentInfo struct {
	Dir          string `json:"dir"`
	ContentFiles int    `json:"content_files"`
	MappedIDs    int    `json:"mapped_ids"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
	Backend       string `json:"pdf_backend"`
	WordPressURL  string `json:"wp_url,omitempty"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	jsonOutput := false
	dir := "."
	for _, arg := range args {
		switch {
		case arg == "--json":
			jsonOutput = true
		case strings.HasPrefix(arg, "--workdir="):
			dir = strings.TrimPrefix(arg, "--workdir=")
		}
	}
	if v := env.Getenv("BOOKLET_WORKDIR"); v != "" && dir == "." {
		dir = v
	}

	result := runDoctor(env.Getenv, dir)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(getenv func(string) string, dir string) *doctorResult {
	backend := strings.ToLower(getenv("PDF_BACKEND"))
	if backend == "" {
		backend = booklet.BackendRod
	}
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:           runtime.GOOS,
			Arch:         runtime.GOARCH,
			NoSandbox:    getenv("ROD_NO_SANDBOX"),
			BrowserBin:   getenv("ROD_BROWSER_BIN"),
			Backend:      backend,
			WordPressURL: getenv("WP_URL"),
		},
	}

	checkChrome(result)
	checkTool(result, getenv("PDF_COMMAND"))
	checkContent(result, dir)
	checkEnvironment(result, getenv)
	checkSystem(result)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// needsBrowser reports whether the selected backend drives Chrome.
func (r *doctorResult) needsBrowser() bool {
	return r.Env.Backend != booklet.BackendCommand
}

// problem records msg as an error when the backend depends on it,
// otherwise as a warning.
func (r *doctorResult) problem(required bool, msg string) {
	if required {
		r.Errors = append(r.Errors, msg)
	} else {
		r.Warnings = append(r.Warnings, msg)
	}
}

// checkChrome detects Chrome/Chromium installation.
func checkChrome(result *doctorResult) {
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		// Use rod's launcher to locate Chrome
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			result.problem(result.needsBrowser(),
				"Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		result.problem(result.needsBrowser(), fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	out, err := exec.Command(chromePath, "--version").Output() // #nosec G204 -- path from launcher or ROD_BROWSER_BIN
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	// Sandbox status: disabled if ROD_NO_SANDBOX=1
	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkTool looks for the executable of the command backend.
func checkTool(result *doctorResult, command string) {
	if command == "" {
		command = booklet.DefaultPDFCommand
	}
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return
	}
	result.Tool.Name = fields[0]

	path, err := exec.LookPath(fields[0])
	if err != nil {
		result.problem(!result.needsBrowser(),
			fmt.Sprintf("%s not found on PATH (needed by the command backend)", fields[0]))
		return
	}
	result.Tool.Found = true
	result.Tool.Path = path
}

// checkContent counts content files and mapped ids in dir.
func checkContent(result *doctorResult, dir string) {
	result.Content.Dir = dir

	names, err := booklet.NewDirSource(dir).List()
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Cannot list %s: %v", dir, err))
		return
	}
	result.Content.ContentFiles = len(names)
	if len(names) == 0 && !fileExists(filepath.Join(dir, booklet.DefaultContentFile)) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("No content files in %s. Run `booklet fetch` first", dir))
	}

	ids, err := booklet.LoadIdentifierMap(filepath.Join(dir, booklet.IdentifierMapFile))
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		return
	}
	result.Content.MappedIDs = ids.Len()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, getenv func(string) string) {
	// Detect container (multi-signal approach)
	result.Env.Container, result.Env.ContainerHint = isContainer(getenv)

	// Detect CI environments
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	// Warn if container/CI without sandbox disabled
	if result.needsBrowser() && (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(getenv func(string) string) (bool, string) {
	// Explicit override (highest priority)
	if getenv("BOOKLET_CONTAINER") == "1" {
		return true, "BOOKLET_CONTAINER=1"
	}
	// Docker
	if fileExists("/.dockerenv") {
		return true, "/.dockerenv"
	}
	// Podman / systemd-nspawn / general container indicator
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	// Kubernetes
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies system requirements.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	testFile := filepath.Join(tmpDir, "booklet-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
	} else {
		_ = os.Remove(testFile)
		result.System.TempWritable = true
	}
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "booklet doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [--] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "PDF command")
	if r.Tool.Found {
		fmt.Fprintf(w, "  [OK] %s at %s\n", r.Tool.Name, r.Tool.Path)
	} else {
		fmt.Fprintf(w, "  [--] %s not found\n", r.Tool.Name)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Content")
	fmt.Fprintf(w, "  [OK] Directory: %s\n", r.Content.Dir)
	fmt.Fprintf(w, "  [OK] Content files: %d, mapped ids: %d\n", r.Content.ContentFiles, r.Content.MappedIDs)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	fmt.Fprintf(w, "  [OK] PDF backend: %s\n", r.Env.Backend)
	if r.Env.WordPressURL != "" {
		fmt.Fprintf(w, "  [OK] WordPress: %s\n", r.Env.WordPressURL)
	}
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to build")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
