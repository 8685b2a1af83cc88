package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const blogYAML = `
title: blog
tables:
  - name: users
    fields:
      - {name: id, type: int, primary: true}
      - {name: name, type: varchar(50)}
  - name: posts
    fields:
      - {name: id, type: int, primary: true}
      - {name: user_id, type: int}
  - name: comments
    fields:
      - {name: id, type: int, primary: true}
      - {name: post_id, type: int}
`

func writeSchema(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(blogYAML), 0o600))
	return path
}

func TestParseTableList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "single", in: "users", want: []string{"users"}},
		{name: "multiple", in: "users,posts", want: []string{"users", "posts"}},
		{name: "spaces", in: " users , posts ", want: []string{"users", "posts"}},
		{name: "blanks dropped", in: "users,,posts,", want: []string{"users", "posts"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseTableList(tt.in))
		})
	}
}

func TestDatabaseURL(t *testing.T) {
	assert.Equal(t, "sqlite://shop.db", databaseURL(&cliFlags{sqlitePath: "shop.db"}))
	assert.Equal(t, "mysql://u:p@tcp(localhost:3306)/shop", databaseURL(&cliFlags{mysqlURL: "u:p@tcp(localhost:3306)/shop"}))
	assert.Equal(t, "mysql://u:p@tcp(localhost:3306)/shop", databaseURL(&cliFlags{mysqlURL: "mysql://u:p@tcp(localhost:3306)/shop"}))
	assert.Equal(t, "postgres://localhost/shop", databaseURL(&cliFlags{dbURL: "postgres://localhost/shop"}))
}

func TestCheckOutputFlags(t *testing.T) {
	assert.NoError(t, checkOutputFlags("all", "", "out"))
	assert.NoError(t, checkOutputFlags("dbml", "schema.dbml", ""))
	assert.NoError(t, checkOutputFlags("drawdb", "", ""))
	assert.Error(t, checkOutputFlags("dbml", "schema.dbml", "out"))
	assert.Error(t, checkOutputFlags("all", "", ""))
}

func TestRunWritesToStdout(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := execute([]string{"-i", writeSchema(t), "-f", "dbml", "--exclude", "comments"}, &stdout, &stderr)
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "Table users {")
	assert.Contains(t, out, "Ref fk_posts_user_id_users: posts.user_id > users.id")
	assert.NotContains(t, out, "comments")
}

func TestRunNoInfer(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := execute([]string{"-i", writeSchema(t), "-f", "dbml", "--no-infer", "--title", "Blog"}, &stdout, &stderr)
	require.NoError(t, err)
	assert.NotContains(t, stdout.String(), "Ref ")
}

func TestRunWritesFiles(t *testing.T) {
	input := writeSchema(t)

	dir := filepath.Join(t.TempDir(), "diagram")
	require.NoError(t, execute([]string{"-i", input, "-d", dir}, &bytes.Buffer{}, &bytes.Buffer{}))
	for _, name := range []string{"diagram.json", "schema.dbml", "_overview.md", "users.md", "posts.md", "comments.md"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	file := filepath.Join(t.TempDir(), "blog.json")
	require.NoError(t, execute([]string{"-i", input, "-f", "drawdb", "-o", file}, &bytes.Buffer{}, &bytes.Buffer{}))
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"title": "blog"`)
}

func TestRunRejectsBadFlags(t *testing.T) {
	input := writeSchema(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "no source", args: []string{"-f", "dbml"}},
		{name: "two sources", args: []string{"-i", input, "--sqlite", "shop.db", "-f", "dbml"}},
		{name: "all without dir", args: []string{"-i", input, "-f", "all"}},
		{name: "output and dir", args: []string{"-i", input, "-o", "x.json", "-d", "out"}},
		{name: "unknown format", args: []string{"-i", input, "-f", "svg"}},
		{name: "missing file", args: []string{"-i", filepath.Join(t.TempDir(), "none.yaml"), "-f", "dbml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout bytes.Buffer
			assert.Error(t, execute(tt.args, &stdout, &bytes.Buffer{}))
			assert.Empty(t, stdout.String())
		})
	}
}
