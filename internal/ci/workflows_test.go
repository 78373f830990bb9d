package ci_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readRepoFile(t *testing.T, relativePath string) string {
	t.Helper()
	fullPath := filepath.Join("..", "..", filepath.FromSlash(relativePath))
	data, readErr := os.ReadFile(fullPath)
	if readErr != nil {
		t.Fatalf("read %q: %v", relativePath, readErr)
	}
	return string(data)
}

func TestTestWorkflowRunsVetAndTests(t *testing.T) {
	workflow := readRepoFile(t, ".github/workflows/go-tests.yml")
	for _, required := range []string{
		"actions/setup-go@v5",
		`go-version: "1.25"`,
		"go vet ./...",
		"go test ./...",
	} {
		if !strings.Contains(workflow, required) {
			t.Fatalf("go-tests.yml missing %q", required)
		}
	}
}

func TestReleaseWorkflowBuildsTaggedImage(t *testing.T) {
	workflow := readRepoFile(t, ".github/workflows/release.yml")
	if !strings.Contains(workflow, `- "v*"`) {
		t.Fatalf("release.yml should trigger on version tags")
	}
	if !strings.Contains(workflow, "docker build -t taskdeck:") {
		t.Fatalf("release.yml should build a taskdeck image")
	}
}

func TestDockerfileBuildsServerBinary(t *testing.T) {
	dockerfile := readRepoFile(t, "Dockerfile")
	if !strings.Contains(dockerfile, "go build -o /out/taskdeck ./cmd/server") {
		t.Fatalf("Dockerfile should build the server entrypoint")
	}
	if !strings.Contains(dockerfile, "CGO_ENABLED=0") {
		t.Fatalf("Dockerfile should produce a static binary for the alpine runtime")
	}
}
