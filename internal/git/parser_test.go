package git_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/chmouel/lazydiff/internal/config"
	"github.com/chmouel/lazydiff/internal/git"
	"github.com/chmouel/lazydiff/internal/git/gittest"
	"github.com/chmouel/lazydiff/internal/models"
)

func newParser() *git.Parser {
	return git.NewParser(config.DefaultPatterns())
}

func TestParseBranches(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected []models.Branch
	}{
		{
			name: "current branch marker",
			output: "  feature/login 1a2b3c4 Add login\n" +
				"* main          5d6e7f8 [ahead 1] Merge\n",
			expected: []models.Branch{
				models.HeadBranch(),
				{Name: "feature/login", Revision: "1a2b3c4"},
				{Name: "main", Revision: "5d6e7f8"},
			},
		},
		{
			name: "detached head is replaced",
			output: "* (HEAD detached at 5d6e7f8) 5d6e7f8 Merge\n" +
				"  main                     5d6e7f8 Merge\n",
			expected: []models.Branch{
				models.HeadBranch(),
				{Name: "main", Revision: "5d6e7f8"},
			},
		},
		{
			name:     "empty output",
			output:   "",
			expected: []models.Branch{models.HeadBranch()},
		},
		{
			name:   "worktree marker",
			output: "+ other 0badf00 Other\n",
			expected: []models.Branch{
				models.HeadBranch(),
				{Name: "other", Revision: "0badf00"},
			},
		},
	}

	p := newParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.ParseBranches(tt.output))
		})
	}
}

func TestParseBranchesHeadAlwaysFirstOnce(t *testing.T) {
	p := newParser()
	rapid.Check(t, func(t *rapid.T) {
		names := rapid.SliceOfDistinct(rapid.StringMatching(`[a-z][a-z0-9/_-]{0,12}`), rapid.ID[string]).Draw(t, "names")
		detached := rapid.Bool().Draw(t, "detached")
		current := rapid.IntRange(-1, len(names)-1).Draw(t, "current")

		var b strings.Builder
		if detached {
			b.WriteString("* (HEAD detached at abc1234) abc1234 msg\n")
		}
		for i, n := range names {
			marker := " "
			if i == current && !detached {
				marker = "*"
			}
			fmt.Fprintf(&b, "%s %s %07x subject\n", marker, n, i+0x1000000)
		}

		branches := p.ParseBranches(b.String())
		require.NotEmpty(t, branches)
		assert.Equal(t, models.HeadBranch(), branches[0])
		count := 0
		for _, br := range branches {
			if br.Name == models.HeadName {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})
}

func TestParseCommits(t *testing.T) {
	out := gittest.Log(
		gittest.Commit{Hash: "aaa1111", Message: "Touch a", Author: "Ada", Date: "03/02/2024 10:15", Files: []string{"M\ta/x.txt", "A\ta/y.txt"}},
		gittest.Commit{Hash: "bbb2222", Message: "Rename <b>", Author: "Bob", Date: "04/02/2024 11:30", Files: []string{"R100\told/z.txt\tb/z.txt"}},
	)

	commits := newParser().ParseCommits(out)
	require.Len(t, commits, 2)

	assert.Equal(t, "aaa1111", commits[0].Revision)
	assert.Equal(t, "Touch a", commits[0].Message)
	assert.Equal(t, "Ada", commits[0].Author)
	assert.Equal(t, time.Date(2024, time.February, 3, 10, 15, 0, 0, time.Local), commits[0].Date)
	assert.Equal(t, []models.FileChange{
		{Path: "a/x.txt", Status: models.StatusModified},
		{Path: "a/y.txt", Status: models.StatusAdded},
	}, commits[0].Files)

	assert.Equal(t, "Rename <b>", commits[1].Message)
	assert.Equal(t, []models.FileChange{{Path: "b/z.txt", Status: models.StatusRenamed}}, commits[1].Files)
}

func TestParseCommitsKeepsPositionOfBrokenBlock(t *testing.T) {
	out := "<Hash:aaa1111> <Message:ok> <Author:Ada> <Date:03/02/2024 10:15>\nM\ta.txt\n\n" +
		"<Hash:garbage\n\n" +
		"<Hash:ccc3333> <Message:ok> <Author:Cy> <Date:03/02/2024 10:15>\nD\tc.txt\n"

	commits := newParser().ParseCommits(out)
	require.Len(t, commits, 3)
	assert.True(t, commits[0].IsValid())
	assert.False(t, commits[1].IsValid())
	assert.Equal(t, "ccc3333", commits[2].Revision)
}

func TestParseCommitsEmpty(t *testing.T) {
	assert.Empty(t, newParser().ParseCommits(""))
}

func TestParseChangedFilesStatusTable(t *testing.T) {
	text := "A\tadded\nM\tmodified\nD\tdeleted\nR087\tfrom\trenamed\nC100\tsrc\tcopied\nU\tunmerged\nT\ttypechange\n"
	files := newParser().ParseChangedFiles(text)

	got := map[string]models.FileStatus{}
	for _, f := range files {
		got[f.Path] = f.Status
	}
	assert.Equal(t, map[string]models.FileStatus{
		"added":      models.StatusAdded,
		"modified":   models.StatusModified,
		"deleted":    models.StatusDeleted,
		"renamed":    models.StatusRenamed,
		"copied":     models.StatusCopied,
		"unmerged":   models.StatusUnmerged,
		"typechange": models.StatusNone,
	}, got)
}

func TestParseChangedFilesWithSpaces(t *testing.T) {
	files := newParser().ParseChangedFiles("M\tdocs/my notes.md\r\n")
	require.Len(t, files, 1)
	assert.Equal(t, "docs/my notes.md", files[0].Path)
}

func TestParseDate(t *testing.T) {
	p := newParser()
	assert.Equal(t, time.Date(1999, time.December, 31, 23, 59, 0, 0, time.Local), p.ParseDate("31/12/1999 23:59"))
	assert.True(t, p.ParseDate("not a date").IsZero())
	assert.True(t, p.ParseDate("31/02/2024 10:00").IsZero())
	assert.True(t, p.ParseDate("01/13/2024 10:00").IsZero())
}

func TestCustomPatterns(t *testing.T) {
	patterns := config.DefaultPatterns()
	patterns.Date = `(?P<year>\d+)-(?P<month>\d+)-(?P<day>\d+) (?P<hour>\d+):(?P<minute>\d+)`
	patterns.Branch = `([unclosed`
	patterns.ChangedFile = `(?m)^(\w)\t(.+)$` // no named groups

	p := git.NewParser(patterns)
	assert.Equal(t, time.Date(2024, time.March, 5, 8, 9, 0, 0, time.Local), p.ParseDate("2024-03-05 08:09"))
	assert.Len(t, p.ParseBranches("* main abc1234 msg\n"), 2)
	assert.Equal(t, []models.FileChange{{Path: "x", Status: models.StatusAdded}}, p.ParseChangedFiles("A\tx\n"))
}

func TestInsertHead(t *testing.T) {
	got := git.InsertHead([]models.Branch{{Name: "main", Revision: "1"}, models.HeadBranch()})
	assert.Equal(t, []models.Branch{models.HeadBranch(), {Name: "main", Revision: "1"}}, got)
}
