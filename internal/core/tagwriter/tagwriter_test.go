package tagwriter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/atlas/internal/core/assign"
	"github.com/hay-kot/atlas/internal/core/notes"
)

func TestClearLine(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "all three kinds",
			in:   "- [ ] Draft memo #atlas/today #atlas/focus/2025-01-09 #atlas/slot/2025-01-09/0830-0900 📅 2025-01-09",
			want: "- [ ] Draft memo 📅 2025-01-09",
		},
		{
			name: "trailing tags",
			in:   "- [ ] Draft memo #atlas/today #atlas/slot/2025-01-09/deep",
			want: "- [ ] Draft memo",
		},
		{
			name: "keeps indent",
			in:   "    - [ ] Nested #atlas/slot/2025-01-09/social-1 item",
			want: "    - [ ] Nested item",
		},
		{
			name: "keeps crlf",
			in:   "- [ ] Windows #atlas/today\r",
			want: "- [ ] Windows\r",
		},
		{
			name: "untouched when no tag",
			in:   "- [ ]  spaced   out  ",
			want: "- [ ]  spaced   out  ",
		},
		{
			name: "not a whole token",
			in:   "- [ ] see foo#atlas/today and #atlas/todayish",
			want: "- [ ] see foo#atlas/today and #atlas/todayish",
		},
		{
			name: "other atlas tags kept",
			in:   "- [ ] Keep #atlas/project #atlas/today",
			want: "- [ ] Keep #atlas/project",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClearLine(tt.in))
		})
	}
}

func TestClearText(t *testing.T) {
	in := "# Note\n- [ ] A #atlas/today\n- [ ] B\n- [x] C #atlas/focus/2025-01-01\n"

	out, n := ClearText(in)
	assert.Equal(t, 2, n)
	assert.Equal(t, "# Note\n- [ ] A\n- [ ] B\n- [x] C\n", out)

	again, n := ClearText(out)
	assert.Zero(t, n)
	assert.Equal(t, out, again)
}

func TestClearText_SkipsFences(t *testing.T) {
	in := "- [ ] A #atlas/today\n```tasks\ntag includes #atlas/today\n```\n"

	out, n := ClearText(in)
	assert.Equal(t, 1, n)
	assert.Equal(t, "- [ ] A\n```tasks\ntag includes #atlas/today\n```\n", out)
}

func TestAddTags(t *testing.T) {
	tags := []string{assign.TodayTag, "#atlas/focus/2025-01-10", "#atlas/slot/2025-01-10/deep"}

	t.Run("appends", func(t *testing.T) {
		got := AddTags("- [ ] Draft 📅 2025-01-10", tags)
		assert.Equal(t, "- [ ] Draft 📅 2025-01-10 #atlas/today #atlas/focus/2025-01-10 #atlas/slot/2025-01-10/deep", got)
	})

	t.Run("before backlink", func(t *testing.T) {
		got := AddTags("- [ ] Draft ⤴ [[Notes/a|source]]", tags[:1])
		assert.Equal(t, "- [ ] Draft #atlas/today ⤴ [[Notes/a|source]]", got)
	})

	t.Run("idempotent", func(t *testing.T) {
		once := AddTags("- [ ] Draft\r", tags)
		assert.Equal(t, once, AddTags(once, tags))
		assert.Equal(t, byte('\r'), once[len(once)-1])
	})
}

func TestApplyText(t *testing.T) {
	text := "- [ ] Draft memo 📅 2025-01-09\n" +
		"- [x] Draft memo 📅 2025-01-09\n" +
		"> - [ ] Quoted 📅 2025-01-09\n" +
		"- [ ] Other 📅 2025-01-09\n"

	targets := map[string][]string{
		notes.Key("Draft memo 📅 2025-01-09 ⤴ [[Daily/2025-01-10|daily]]"): {assign.TodayTag},
		notes.Key("Quoted 📅 2025-01-09"):                                  {assign.TodayTag},
	}

	out, n := ApplyText(text, targets)
	assert.Equal(t, 2, n)
	assert.Equal(t,
		"- [ ] Draft memo 📅 2025-01-09 #atlas/today\n"+
			"- [x] Draft memo 📅 2025-01-09\n"+
			"> - [ ] Quoted 📅 2025-01-09 #atlas/today\n"+
			"- [ ] Other 📅 2025-01-09\n",
		out,
	)

	_, n = ApplyText(out, targets)
	assert.Zero(t, n)
}

func TestFiles_ClearAndApply(t *testing.T) {
	root := t.TempDir()
	daily := filepath.Join(root, "daily.md")
	scratch := filepath.Join(root, "scratch.md")
	untouched := filepath.Join(root, "clean.md")

	require.NoError(t, os.WriteFile(daily, []byte("- [ ] Call clerk #atlas/today 📅 2025-01-10\n"), 0o644))
	require.NoError(t, os.WriteFile(scratch, []byte("- [ ] Write grant #deep 📅 2025-01-01\n"), 0o644))
	require.NoError(t, os.WriteFile(untouched, []byte("- [ ] Nothing here\n"), 0o644))

	cleared, err := Clear([]string{daily, scratch, untouched, filepath.Join(root, "missing.md")})
	require.NoError(t, err)
	assert.Equal(t, 3, cleared.Files)
	assert.Equal(t, []string{daily}, cleared.Written)

	paths := map[string]string{"Daily": daily, "Scratch": scratch}
	resolve := func(link string) (string, error) {
		if p, ok := paths[link]; ok {
			return p, nil
		}
		return "", errors.New("unknown")
	}

	assigned := []assign.Assignment{
		{Task: notes.Task{Text: "Call clerk 📅 2025-01-10 ⤴ [[Daily|daily]]", Source: "Daily"}, Tags: []string{assign.TodayTag}},
		{Task: notes.Task{Text: "Write grant #deep 📅 2025-01-01 ⤴ [[Scratch|scratch]]", Source: "Scratch"}, Tags: []string{assign.TodayTag, "#atlas/slot/2025-01-10/deep"}},
		{Task: notes.Task{Text: "Ghost ⤴ [[Nowhere|source]]", Source: "Nowhere"}, Tags: []string{assign.TodayTag}},
		{Task: notes.Task{Text: "No backlink"}, Tags: []string{assign.TodayTag}},
	}

	res, err := Apply(resolve, assigned)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, 2, res.Lines)
	assert.Equal(t, []string{"Nowhere"}, res.Unresolved)

	got, err := os.ReadFile(scratch)
	require.NoError(t, err)
	assert.Equal(t, "- [ ] Write grant #deep 📅 2025-01-01 #atlas/today #atlas/slot/2025-01-10/deep\n", string(got))

	got, err = os.ReadFile(daily)
	require.NoError(t, err)
	assert.Equal(t, "- [ ] Call clerk 📅 2025-01-10 #atlas/today\n", string(got))
}
