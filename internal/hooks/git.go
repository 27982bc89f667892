package hooks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// fileModifyingCommands are the shell commands whose path arguments get
// staged after a Bash tool call.
var fileModifyingCommands = map[string]bool{
	"chmod": true, "chown": true, "touch": true, "mv": true, "cp": true,
	"ln": true, "sed": true, "awk": true, "truncate": true, "install": true,
}

var pathLikeSuffixes = []string{".py", ".sh", ".md", ".json", ".ts", ".js"}

// chmodMode matches octal and symbolic chmod modes such as 755, +x or u+rw,g-w.
var chmodMode = regexp.MustCompile(`^([0-7]{3,4}|([ugoa]*[-+=][rwxXstugo]*)(,[ugoa]*[-+=][rwxXstugo]*)*)$`)

// AutoStage stages files touched by Write, Edit and file-modifying Bash
// commands.
func AutoStage(ctx context.Context, env *Env, in Input) (Response, error) {
	projectDir := env.ProjectDir
	var files []string
	switch in.ToolName {
	case "Write", "Edit":
		if in.ToolInput.FilePath != "" {
			files = append(files, in.ToolInput.FilePath)
		}
	case "Bash":
		files = BashPaths(in.ToolInput.Command, projectDir, fileExists)
	default:
		env.Log.Printf("skipping tool %q", in.ToolName)
		return Response{}, nil
	}

	var staged []string
	for _, file := range files {
		if projectDir != "" && !filepath.IsAbs(file) {
			file = filepath.Join(projectDir, file)
		}
		if projectDir != "" && !within(projectDir, file) {
			env.Log.Printf("outside project: %s", file)
			continue
		}
		dir := projectDir
		if dir == "" {
			dir = filepath.Dir(file)
		}
		if err := env.repo(dir).Add(ctx, file); err != nil {
			env.Log.Printf("git add %s: %v", file, err)
			continue
		}
		name := file
		if projectDir != "" {
			if rel, err := filepath.Rel(projectDir, file); err == nil {
				name = rel
			}
		}
		staged = append(staged, name)
	}
	if len(staged) == 0 {
		return Response{}, nil
	}
	return Notify("Staged: " + strings.Join(staged, ", ")), nil
}

// BashPaths extracts the path arguments of a file-modifying shell command.
// Absolute paths must lie inside projectDir; relative paths must exist.
func BashPaths(command, projectDir string, exists func(string) bool) []string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil
	}
	base := filepath.Base(fields[0])
	if !fileModifyingCommands[base] {
		return nil
	}
	var paths []string
	for _, arg := range fields[1:] {
		if strings.HasPrefix(arg, "-") {
			continue
		}
		if base == "chmod" && chmodMode.MatchString(arg) {
			continue
		}
		if !pathLike(arg) {
			continue
		}
		if filepath.IsAbs(arg) {
			if projectDir != "" && within(projectDir, arg) {
				paths = append(paths, arg)
			}
			continue
		}
		full := arg
		if projectDir != "" {
			full = filepath.Join(projectDir, arg)
		}
		if exists(full) {
			paths = append(paths, full)
		}
	}
	return paths
}

func pathLike(arg string) bool {
	if strings.Contains(arg, "/") {
		return true
	}
	for _, suffix := range pathLikeSuffixes {
		if strings.HasSuffix(arg, suffix) {
			return true
		}
	}
	return false
}

func within(dir, file string) bool {
	rel, err := filepath.Rel(dir, file)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

const (
	listLimit      = 10
	untrackedLimit = 5
)

// PreStopCommit blocks stopping while the working tree has uncommitted work.
func PreStopCommit(ctx context.Context, env *Env, _ Input) (Response, error) {
	repo := env.repo(env.workDir())
	status, err := repo.Status(ctx)
	if err != nil {
		env.Log.Printf("git status: %v", err)
	}
	if status.Clean() {
		return Response{}, nil
	}

	lines := []string{"Uncommitted changes detected. Please commit before stopping.", ""}
	lines = appendFileList(lines, "Staged", status.Staged, listLimit)
	lines = appendFileList(lines, "Modified", status.Unstaged, listLimit)
	lines = appendFileList(lines, "Untracked", status.Untracked, untrackedLimit)

	if len(status.Staged) > 0 {
		stat, err := repo.StagedDiffStat(ctx)
		if err != nil {
			env.Log.Printf("git diff --stat: %v", err)
		}
		if stat != "" {
			lines = append(lines, "**Diff summary:**", "```\n"+stat+"\n```", "")
		}
	}
	lines = append(lines, "Run `/commit` to review and commit these changes.")
	return Block(strings.Join(lines, "\n")), nil
}

func appendFileList(lines []string, label string, files []string, limit int) []string {
	if len(files) == 0 {
		return lines
	}
	lines = append(lines, fmt.Sprintf("**%s (%d files):**", label, len(files)))
	for i, file := range files {
		if i == limit {
			lines = append(lines, fmt.Sprintf("  ... and %d more", len(files)-limit))
			break
		}
		lines = append(lines, "  - "+file)
	}
	return append(lines, "")
}
