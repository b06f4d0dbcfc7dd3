package layers

import (
	"bytes"
	"regexp"
	"strings"
)

// PatternType names the kind of database access found on a line
type PatternType string

const (
	PatternSQL    PatternType = "sql"
	PatternORM    PatternType = "orm"
	PatternImport PatternType = "import"
)

// Hit is one database-access match
type Hit struct {
	Line    int // 1-based
	Pattern PatternType
	Match   string
}

var (
	// SQL keyword as the first token of a string handed to a query-like call
	sqlCall = regexp.MustCompile(`(?i)\b(?:execute|executemany|executescript|exec|query|queryrow|querycontext|execcontext|queryrowcontext|raw|prepare|sql|text)\s*\(\s*(?:[frbu]{0,2})(?:"""|'''|["'` + "`" + `])\s*(SELECT|INSERT|UPDATE|DELETE)\b`)

	// query-like call whose argument opens a multi-line string: execute("""
	sqlCallOpen = regexp.MustCompile(`(?i)\b(?:execute|executemany|executescript|exec|query|queryrow|querycontext|execcontext|queryrowcontext|raw|prepare|sql|text)\s*\(\s*(?:\w+\s*,\s*)?(?:[frbu]{0,2})("""|'''|` + "`" + `)(.*)$`)
	sqlKeyword  = regexp.MustCompile(`(?i)^\s*(SELECT|INSERT|UPDATE|DELETE)\b`)

	// SQL statement shape inside any string literal; upper case only so prose does not match
	sqlLiteral = regexp.MustCompile(`["'` + "`" + `]\s*(SELECT\s.+\sFROM\s|INSERT\s+INTO\s|UPDATE\s+\w+\s+SET\s|DELETE\s+FROM\s)`)

	ormPatterns = []*regexp.Regexp{
		// SQLAlchemy / Django
		regexp.MustCompile(`\b\w+\.(?:query|objects)\.(?:filter|filter_by|get|all|exclude|first|order_by|join|annotate|aggregate|values|create|update|delete)\s*\(`),
		regexp.MustCompile(`\b(?:db\.)?session\.(?:query|execute|add|delete|merge)\s*\(`),
		// Prisma / Sequelize / TypeORM / Mongoose
		regexp.MustCompile(`\bprisma\.\w+\.(?:find\w*|create\w*|update\w*|delete\w*|upsert|count|aggregate)\s*\(`),
		regexp.MustCompile(`\b\w+\.(?:findOne|findMany|findUnique|findFirst|findAll|findById|findByPk|findAndCountAll)\s*\(`),
		regexp.MustCompile(`\b(?:getRepository|createQueryBuilder)\s*\(`),
		// GORM / sqlx
		regexp.MustCompile(`\bdb\.(?:Where|First|Find|Preload|Model|Joins|Create|Save|Delete|Raw)\s*\(`),
		regexp.MustCompile(`\b\w+\.(?:Select|Get)Context\s*\(\s*ctx\s*,`),
	}

	pyImport      = regexp.MustCompile(`^\s*(?:from\s+([\w.]+)\s+import\b|import\s+([\w.]+))`)
	jsImport      = regexp.MustCompile(`^\s*import\s+(?:[^'"]+\s+from\s+)?['"]([^'"]+)['"]`)
	jsRequire     = regexp.MustCompile(`\brequire\s*\(\s*['"]([^'"]+)['"]\s*\)`)
	goImport      = regexp.MustCompile(`^\s*import\s+(?:[\w.]+\s+)?"([^"]+)"`)
	goImportBlock = regexp.MustCompile(`^\s*import\s*\(\s*$`)
	goImportSpec  = regexp.MustCompile(`^\s*(?:[\w.]+\s+)?"([^"]+)"`)

	dbModuleSegment = regexp.MustCompile(`(?i)(?:^|[/.\-_@])(?:models?|db|database|dal|dao|repositor(?:y|ies)|entities|orm)(?:$|[/.\-_])`)
)

var dbLibraries = []string{
	"sqlalchemy", "psycopg2", "psycopg", "pymysql", "mysqldb", "sqlite3", "django.db", "peewee", "pymongo", "mongoengine", "tortoise",
	"@prisma/client", "prisma", "sequelize", "mongoose", "typeorm", "knex", "pg", "mysql", "mysql2", "better-sqlite3", "drizzle-orm",
	"database/sql", "gorm.io/gorm", "github.com/jmoiron/sqlx", "github.com/jackc/pgx", "go.mongodb.org/mongo-driver", "entgo.io/ent",
}

// isDatabaseModule reports whether an imported module looks like a
// database driver, ORM or model package
func isDatabaseModule(module string) bool {
	lower := strings.ToLower(module)
	for _, lib := range dbLibraries {
		if lower == lib || strings.HasPrefix(lower, lib+"/") || strings.HasPrefix(lower, lib+".") {
			return true
		}
	}
	return dbModuleSegment.MatchString(module)
}

// Detect scans source text line by line and returns at most one hit per
// line: the strongest of sql, orm and import. Comment-only lines are skipped.
// A multi-line string opened by a query-like call is reported on the line
// holding its leading SQL keyword.
func Detect(src []byte) []Hit {
	var hits []Hit
	inGoImports := false

	var (
		openDelim string // closing delimiter of a query string spanning lines
		pending   bool   // no content seen yet inside that string
	)

	for i, raw := range bytes.Split(src, []byte("\n")) {
		line := strings.TrimRight(string(raw), "\r")
		trimmed := strings.TrimSpace(line)

		if openDelim != "" {
			body, closed := line, false
			if idx := strings.Index(line, openDelim); idx >= 0 {
				body, closed = line[:idx], true
			}
			if pending && strings.TrimSpace(body) != "" {
				pending = false
				if sqlKeyword.MatchString(body) {
					hits = append(hits, Hit{Line: i + 1, Pattern: PatternSQL, Match: strings.TrimSpace(body)})
				}
			}
			if closed {
				openDelim, pending = "", false
			}
			continue
		}

		if inGoImports {
			if strings.HasPrefix(trimmed, ")") {
				inGoImports = false
				continue
			}
			if m := goImportSpec.FindStringSubmatch(line); m != nil && isDatabaseModule(m[1]) {
				hits = append(hits, Hit{Line: i + 1, Pattern: PatternImport, Match: m[1]})
			}
			continue
		}
		if goImportBlock.MatchString(line) {
			inGoImports = true
			continue
		}

		if trimmed == "" || isComment(trimmed) {
			continue
		}

		if h, ok := detectLine(line); ok {
			h.Line = i + 1
			hits = append(hits, h)
		}

		if m := sqlCallOpen.FindStringSubmatch(line); m != nil && strings.TrimSpace(m[2]) == "" {
			openDelim, pending = m[1], true
		}
	}

	return hits
}

func detectLine(line string) (Hit, bool) {
	if m := sqlCall.FindStringSubmatch(line); m != nil {
		return Hit{Pattern: PatternSQL, Match: strings.TrimSpace(m[0])}, true
	}
	if m := sqlLiteral.FindString(line); m != "" {
		return Hit{Pattern: PatternSQL, Match: strings.TrimSpace(m)}, true
	}
	for _, re := range ormPatterns {
		if m := re.FindString(line); m != "" {
			return Hit{Pattern: PatternORM, Match: strings.TrimSpace(m)}, true
		}
	}
	if module, ok := importedModule(line); ok && isDatabaseModule(module) {
		return Hit{Pattern: PatternImport, Match: module}, true
	}
	return Hit{}, false
}

func importedModule(line string) (string, bool) {
	if m := goImport.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	if m := jsImport.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	if m := jsRequire.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	if m := pyImport.FindStringSubmatch(line); m != nil {
		if m[1] != "" {
			return m[1], true
		}
		return m[2], true
	}
	return "", false
}

func isComment(trimmed string) bool {
	return strings.HasPrefix(trimmed, "#") ||
		strings.HasPrefix(trimmed, "//") ||
		strings.HasPrefix(trimmed, "/*") ||
		strings.HasPrefix(trimmed, "*")
}
