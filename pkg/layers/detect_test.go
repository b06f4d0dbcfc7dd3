package layers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		pattern PatternType
		line    int
	}{
		{"python execute", `cursor.execute("SELECT * FROM users")`, PatternSQL, 1},
		{"f-string query", `db.execute(f"UPDATE users SET name = {name}")`, PatternSQL, 1},
		{"go query", "rows, err := db.QueryContext(ctx, `SELECT id FROM orders`)", PatternSQL, 1},
		{"sql literal", `const q = "SELECT name FROM users WHERE id = $1"`, PatternSQL, 1},
		{"django orm", `Order.objects.filter(paid=True)`, PatternORM, 1},
		{"sqlalchemy session", `db.session.query(User).all()`, PatternORM, 1},
		{"prisma", `await prisma.user.findMany({})`, PatternORM, 1},
		{"gorm", `db.Where("name = ?", n).First(&u)`, PatternORM, 1},
		{"python model import", `from app.models import User`, PatternImport, 1},
		{"js require", `const { Pool } = require('pg')`, PatternImport, 1},
		{"es import", `import { PrismaClient } from '@prisma/client'`, PatternImport, 1},
		{"relative model import", `import User from '../models/user'`, PatternImport, 1},
		{"go single import", `import "database/sql"`, PatternImport, 1},
		{"go block import", "package api\n\nimport (\n\t\"net/http\"\n\t\"gorm.io/gorm\"\n)\n", PatternImport, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := Detect([]byte(tt.src))
			require.Len(t, hits, 1)
			assert.Equal(t, tt.pattern, hits[0].Pattern)
			assert.Equal(t, tt.line, hits[0].Line)
			assert.NotEmpty(t, hits[0].Match)
		})
	}
}

func TestDetect_NoFalsePositives(t *testing.T) {
	src := `# cursor.execute("SELECT * FROM users")
// db.Query("SELECT 1 FROM t")
import os
from flask import request
label = "Please select a file from the list"
import datetime
`
	assert.Empty(t, Detect([]byte(src)))
}

func TestDetect_StrongestPatternPerLine(t *testing.T) {
	hits := Detect([]byte(`session.execute("DELETE FROM users")` + "\n" + `User.objects.filter(x=1)`))

	require.Len(t, hits, 2)
	assert.Equal(t, PatternSQL, hits[0].Pattern)
	assert.Equal(t, PatternORM, hits[1].Pattern)
	assert.Equal(t, 2, hits[1].Line)
}

func TestDetect_MultiLineQueryStrings(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{
			name: "python triple quoted",
			src:  "def list_users(cursor):\n    cursor.execute(\"\"\"\n        SELECT * FROM users\n        WHERE active = 1\n    \"\"\")\n",
			line: 3,
		},
		{
			name: "go raw string",
			src:  "rows, err := db.Query(`\n\tSELECT id FROM users`)\n",
			line: 2,
		},
		{
			name: "go raw string after context",
			src:  "_, err := db.ExecContext(ctx, `\n\n\tdelete from sessions where expired`)\n",
			line: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := Detect([]byte(tt.src))
			require.Len(t, hits, 1)
			assert.Equal(t, PatternSQL, hits[0].Pattern)
			assert.Equal(t, tt.line, hits[0].Line)
		})
	}
}

func TestDetect_MultiLineStringsWithoutSQL(t *testing.T) {
	src := "render_text(\"\"\"\n    Select a file from the list\n\"\"\")\n" +
		"cursor.execute('''\n    -- nothing to run\n''')\n" +
		"x = 1\n"
	assert.Empty(t, Detect([]byte(src)))
}
