// Package vcsref materialises a baseline intent store from a git revision,
// for the `diff` command's comparison-against-history. It's a
// subprocess-driven `git ls-tree` followed by one `git show` per intent
// file, re-using internal/store's own file parser so a baseline document
// goes through exactly the same decode/schema-validate path as one loaded
// from disk.
package vcsref

import (
	"bytes"
	"os/exec"
	"strings"

	"github.com/mazharm/intent-engine/internal/store"
)

// ModelPath is the repository-relative path the loader walks, matching
// internal/pipeline's default model directory (pipeline.ModelDir).
const ModelPath = ".intent/model/"

// LoadAtRef returns a store populated from .intent/model/*.intent.json as it
// existed at gitRef. A ref with no .intent/model directory (or a repository
// with no git history at all) yields an empty store, not an error — a
// missing baseline is a legitimate "everything is new" comparison point.
func LoadAtRef(gitRef string) (*store.Store, error) {
	s := store.New()

	files, err := listFiles(gitRef)
	if err != nil || len(files) == 0 {
		return s, nil
	}

	for _, file := range files {
		if !strings.HasSuffix(file, ".intent.json") {
			continue
		}
		content, err := showFile(gitRef, file)
		if err != nil {
			continue
		}
		doc, err := store.ParseIntentFile(content, file)
		if err != nil {
			continue
		}
		_ = s.Add(doc)
	}

	return s, nil
}

func listFiles(gitRef string) ([]string, error) {
	out, err := runGit("ls-tree", "-r", "--name-only", gitRef, ModelPath)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

func showFile(gitRef, file string) ([]byte, error) {
	out, err := runGit("show", gitRef+":"+file)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func runGit(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return stdout.String(), nil
}
