package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/samcharles93/s2s/internal/bundle"
)

const envModelDir = "S2S_MODEL_DIR"

// stdinIsTTY is a small seam for tests.
var stdinIsTTY = isTTY

// resolveModelDir finds the bundle to load. dirFlag (or $S2S_MODEL_DIR) may
// name a bundle directly or a directory holding several bundles.
func resolveModelDir(dirFlag string, stdin io.Reader, stderr io.Writer) (string, error) {
	dir := strings.TrimSpace(dirFlag)
	if dir == "" {
		dir = strings.TrimSpace(os.Getenv(envModelDir))
	}
	if dir == "" {
		return "", fmt.Errorf("--model-dir is required unless %s is set", envModelDir)
	}
	dir = filepath.Clean(dir)

	if isBundle(dir) {
		return dir, nil
	}
	bundles, err := discoverBundles(dir)
	if err != nil {
		return "", err
	}
	switch len(bundles) {
	case 0:
		return "", fmt.Errorf("no model bundles (%s) found in %s", bundle.ManifestName, dir)
	case 1:
		_, _ = fmt.Fprintf(stderr, "s2s: using model %s\n", bundles[0])
		return bundles[0], nil
	default:
		if !stdinIsTTY() {
			return "", fmt.Errorf(
				"multiple model bundles found in %s but stdin is not interactive; set --model-dir",
				dir,
			)
		}
		return selectBundleInteractively(dir, bundles, stdin, stderr)
	}
}

func isBundle(dir string) bool {
	st, err := os.Stat(filepath.Join(dir, bundle.ManifestName))
	return err == nil && !st.IsDir()
}

// discoverBundles lists the immediate subdirectories of dir that hold a
// manifest, sorted by path.
func discoverBundles(dir string) ([]string, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("model path is not a directory: %s", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var bundles []string
	for _, e := range ents {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(dir, e.Name())
		if isBundle(sub) {
			bundles = append(bundles, sub)
		}
	}
	sort.Strings(bundles)
	return bundles, nil
}

func selectBundleInteractively(dir string, bundles []string, stdin io.Reader, stderr io.Writer) (string, error) {
	_, _ = fmt.Fprintf(stderr, "s2s: select a model from %s\n", dir)
	for i, b := range bundles {
		_, _ = fmt.Fprintf(stderr, "%d. %s\n", i+1, filepath.Base(b))
	}

	reader := bufio.NewReader(stdin)
	for {
		_, _ = fmt.Fprintf(stderr, "s2s: enter selection [1-%d]: ", len(bundles))
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			if errors.Is(err, io.EOF) {
				return "", errors.New("no selection provided on stdin; set --model-dir")
			}
			continue
		}

		idx, convErr := strconv.Atoi(line)
		if convErr != nil || idx < 1 || idx > len(bundles) {
			_, _ = fmt.Fprintf(stderr, "s2s: invalid selection %q\n", line)
			if errors.Is(err, io.EOF) {
				return "", errors.New("invalid selection provided on stdin; set --model-dir")
			}
			continue
		}
		return bundles[idx-1], nil
	}
}

func isTTY() bool {
	st, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (st.Mode() & os.ModeCharDevice) != 0
}
