package git

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/chmouel/lazydiff/internal/config"
	log "github.com/chmouel/lazydiff/internal/log"
	"github.com/chmouel/lazydiff/internal/models"
)

// PrettyFormat is the log format the commit header pattern understands.
const PrettyFormat = "<Hash:%h> <Message:%s> <Author:%an> <Date:%ad>"

// DateFormat is the strftime layout matching the date pattern.
const DateFormat = "%d/%m/%Y %H:%M"

// Parser turns git porcelain text into models.
type Parser struct {
	branch      *regexp.Regexp
	header      *regexp.Regexp
	date        *regexp.Regexp
	changedFile *regexp.Regexp
	delimiter   string
}

// NewParser compiles the patterns. Any pattern that does not compile or lacks
// one of its named groups is replaced by its default.
func NewParser(p config.Patterns) *Parser {
	delimiter := p.CommitDelimiter
	if delimiter == "" {
		delimiter = config.DefaultCommitDelimiter
	}
	return &Parser{
		branch:      compilePattern("branch", p.Branch, config.DefaultBranchPattern, "name", "revision"),
		header:      compilePattern("commit_header", p.CommitHeader, config.DefaultCommitHeaderPattern, "hash", "message", "author", "date", "files"),
		date:        compilePattern("date", p.Date, config.DefaultDatePattern, "day", "month", "year", "hour", "minute"),
		changedFile: compilePattern("changed_file", p.ChangedFile, config.DefaultChangedFilePattern, "status", "path"),
		delimiter:   delimiter,
	}
}

func compilePattern(name, pattern, fallback string, groups ...string) *regexp.Regexp {
	if pattern == "" || pattern == fallback {
		return regexp.MustCompile(fallback)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		log.Errorf("pattern %s does not compile, using default: %v", name, err)
		return regexp.MustCompile(fallback)
	}
	for _, g := range groups {
		if re.SubexpIndex(g) < 0 {
			log.Errorf("pattern %s has no %q group, using default", name, g)
			return regexp.MustCompile(fallback)
		}
	}
	return re
}

func group(re *regexp.Regexp, match []string, name string) string {
	idx := re.SubexpIndex(name)
	if idx < 0 || idx >= len(match) {
		return ""
	}
	return match[idx]
}

// ParseBranches parses `branch -v` output. HEAD is always the first element.
func (p *Parser) ParseBranches(output string) []models.Branch {
	var branches []models.Branch
	for _, match := range p.branch.FindAllStringSubmatch(output, -1) {
		name := strings.TrimSpace(group(p.branch, match, "name"))
		if name == "" {
			continue
		}
		branches = append(branches, models.Branch{
			Name:     name,
			Revision: strings.TrimSpace(group(p.branch, match, "revision")),
		})
	}
	return InsertHead(branches)
}

// InsertHead pins the synthetic HEAD branch at the top. A detached HEAD row
// reported by git is replaced rather than duplicated.
func InsertHead(branches []models.Branch) []models.Branch {
	out := make([]models.Branch, 0, len(branches)+1)
	out = append(out, models.HeadBranch())
	for _, b := range branches {
		if b.Name == models.HeadName {
			continue
		}
		out = append(out, b)
	}
	return out
}

// ParseCommits splits log output on the commit delimiter and parses every block.
// A block that does not parse yields an invalid commit at its position.
func (p *Parser) ParseCommits(output string) []models.Commit {
	var commits []models.Commit
	for _, block := range p.splitBlocks(output) {
		commits = append(commits, p.ParseCommit(block))
	}
	return commits
}

func (p *Parser) splitBlocks(output string) []string {
	var blocks []string
	start := strings.Index(output, p.delimiter)
	for start >= 0 {
		next := strings.Index(output[start+len(p.delimiter):], p.delimiter)
		if next < 0 {
			blocks = append(blocks, output[start:])
			break
		}
		end := start + len(p.delimiter) + next
		blocks = append(blocks, output[start:end])
		start = end
	}
	return blocks
}

// ParseCommit parses a single commit block.
func (p *Parser) ParseCommit(block string) models.Commit {
	match := p.header.FindStringSubmatch(block)
	if match == nil {
		return models.Commit{}
	}
	return models.Commit{
		Revision: strings.TrimSpace(group(p.header, match, "hash")),
		Message:  group(p.header, match, "message"),
		Author:   group(p.header, match, "author"),
		Date:     p.ParseDate(group(p.header, match, "date")),
		Files:    p.ParseChangedFiles(group(p.header, match, "files")),
	}
}

// ParseChangedFiles parses name-status lines. Renames and copies keep the new path.
func (p *Parser) ParseChangedFiles(text string) []models.FileChange {
	var files []models.FileChange
	for _, match := range p.changedFile.FindAllStringSubmatch(text, -1) {
		path := strings.TrimSpace(group(p.changedFile, match, "path"))
		if path == "" {
			continue
		}
		files = append(files, models.FileChange{
			Path:   path,
			Status: models.ParseFileStatus(group(p.changedFile, match, "status")),
		})
	}
	return files
}

// ParseStatuses parses `diff --name-status` output into a path lookup.
func (p *Parser) ParseStatuses(text string) map[string]models.FileStatus {
	statuses := make(map[string]models.FileStatus)
	for _, f := range p.ParseChangedFiles(text) {
		statuses[f.Path] = f.Status
	}
	return statuses
}

// ParseDate parses a DD/MM/YYYY HH:MM date in local time. Anything it cannot
// make sense of yields the zero time.
func (p *Parser) ParseDate(text string) time.Time {
	match := p.date.FindStringSubmatch(text)
	if match == nil {
		return time.Time{}
	}
	var parts [5]int
	for i, name := range []string{"year", "month", "day", "hour", "minute"} {
		n, err := strconv.Atoi(group(p.date, match, name))
		if err != nil {
			return time.Time{}
		}
		parts[i] = n
	}
	year, month, day, hour, minute := parts[0], parts[1], parts[2], parts[3], parts[4]
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 {
		return time.Time{}
	}
	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.Local)
	if t.Day() != day {
		// 31/02 and friends normalise into the next month
		return time.Time{}
	}
	return t
}
