package invoke

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
)

// cliBackend drives a local model CLI through os/exec. The prompt travels
// on stdin, the system prompt and tool allowlist as flags, and images as
// trailing path arguments.
type cliBackend struct {
	command string
	args    []string
}

func newCLIBackend(command string, args []string) *cliBackend {
	return &cliBackend{command: command, args: args}
}

func (b *cliBackend) Name() string {
	return ModeCLI
}

func (b *cliBackend) Invoke(ctx context.Context, req Request) (string, error) {
	args := slices.Clone(b.args)
	if req.System != "" {
		args = append(args, "--system", req.System)
	}
	for _, tool := range req.Tools {
		args = append(args, "--allow-tool", tool)
	}

	paths, cleanup, err := materializeImages(req.Images)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvocationFailed, err)
	}
	defer cleanup()
	args = append(args, paths...)

	cmd := exec.CommandContext(ctx, b.command, args...)
	cmd.Stdin = strings.NewReader(req.content())

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", classifyExit(err, stderr.String())
	}

	return stdout.String(), nil
}

// Probe runs the command with --version to confirm it exists and starts.
func (b *cliBackend) Probe(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, b.command, "--version")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = &stderr

	if err := cmd.Run(); err != nil {
		return classifyExit(err, stderr.String())
	}
	return nil
}

// classifyExit maps a cmd.Run failure onto the package sentinels. A process
// that exited with a code reported a failure; a process that ended without
// one (killed mid-run) may succeed on retry.
func classifyExit(err error, stderr string) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.ExitCode() >= 0 {
			return fmt.Errorf("%w: exit %d: %s", ErrInvocationFailed, exitErr.ExitCode(), strings.TrimSpace(stderr))
		}
		return fmt.Errorf("%w: %w", ErrBackendExited, err)
	}
	return fmt.Errorf("%w: %w", ErrInvocationFailed, err)
}

// materializeImages turns data URIs into temp files the CLI can open.
// Strings that are not data URIs pass through as paths. The returned
// cleanup removes whatever was written.
func materializeImages(images []string) ([]string, func(), error) {
	noop := func() {}
	if len(images) == 0 {
		return nil, noop, nil
	}

	var dir string
	cleanup := noop

	paths := make([]string, 0, len(images))
	for i, img := range images {
		if !strings.HasPrefix(img, "data:") {
			paths = append(paths, img)
			continue
		}

		if dir == "" {
			d, err := os.MkdirTemp("", "byline-images-")
			if err != nil {
				return nil, cleanup, fmt.Errorf("create image dir: %w", err)
			}
			dir = d
			cleanup = func() { os.RemoveAll(dir) }
		}

		data, ext, err := decodeDataURI(img)
		if err != nil {
			return nil, cleanup, fmt.Errorf("image %d: %w", i, err)
		}

		path := filepath.Join(dir, fmt.Sprintf("image-%d%s", i, ext))
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return nil, cleanup, fmt.Errorf("image %d: %w", i, err)
		}
		paths = append(paths, path)
	}

	return paths, cleanup, nil
}

func decodeDataURI(uri string) ([]byte, string, error) {
	rest, _ := strings.CutPrefix(uri, "data:")
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, "", fmt.Errorf("unsupported data URI format")
	}

	ext := ".png"
	switch strings.TrimSuffix(meta, ";base64") {
	case "image/jpeg":
		ext = ".jpg"
	case "image/webp":
		ext = ".webp"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data URI: %w", err)
	}
	return data, ext, nil
}
