package database

import "strings"

// The search surface renders three SQL shapes (row listing, count, total
// size) from a single predicate tree, so their WHERE clauses cannot drift
// apart. Nodes render themselves into parameterized fragments; values only
// ever travel through args.

type predicate interface {
	appendSQL(b *strings.Builder, args *[]interface{})
}

// andPred joins child predicates with AND.
type andPred []predicate

func (p andPred) appendSQL(b *strings.Builder, args *[]interface{}) {
	if len(p) == 0 {
		b.WriteString("1=1")
		return
	}
	b.WriteString("(")
	for i, child := range p {
		if i > 0 {
			b.WriteString(" AND ")
		}
		child.appendSQL(b, args)
	}
	b.WriteString(")")
}

// orPred joins child predicates with OR.
type orPred []predicate

func (p orPred) appendSQL(b *strings.Builder, args *[]interface{}) {
	if len(p) == 0 {
		b.WriteString("1=0")
		return
	}
	b.WriteString("(")
	for i, child := range p {
		if i > 0 {
			b.WriteString(" OR ")
		}
		child.appendSQL(b, args)
	}
	b.WriteString(")")
}

// columnCompare is a direct column comparison against one bound value.
type columnCompare struct {
	column string
	op     string
	value  interface{}
}

func (p columnCompare) appendSQL(b *strings.Builder, args *[]interface{}) {
	b.WriteString(p.column)
	b.WriteString(" ")
	b.WriteString(p.op)
	b.WriteString(" ?")
	*args = append(*args, p.value)
}

// likeMatch is a case-insensitive substring match against a column.
type likeMatch struct {
	column  string
	pattern string
}

func (p likeMatch) appendSQL(b *strings.Builder, args *[]interface{}) {
	b.WriteString(p.column)
	b.WriteString(" LIKE ? ESCAPE '\\'")
	*args = append(*args, p.pattern)
}

// tagExists requires exact (case-folded) membership of one tag.
type tagExists struct {
	tag string
}

func (p tagExists) appendSQL(b *strings.Builder, args *[]interface{}) {
	b.WriteString("EXISTS (SELECT 1 FROM item_tags it WHERE it.item_id = items.id AND it.tag = ? COLLATE NOCASE)")
	*args = append(*args, p.tag)
}

// tagLike requires substring membership of any tag.
type tagLike struct {
	pattern string
}

func (p tagLike) appendSQL(b *strings.Builder, args *[]interface{}) {
	b.WriteString("EXISTS (SELECT 1 FROM item_tags it WHERE it.item_id = items.id AND it.tag LIKE ? ESCAPE '\\')")
	*args = append(*args, p.pattern)
}

// folderMember requires direct membership in one folder.
type folderMember struct {
	folderID string
}

func (p folderMember) appendSQL(b *strings.Builder, args *[]interface{}) {
	b.WriteString("EXISTS (SELECT 1 FROM item_folders f WHERE f.item_id = items.id AND f.folder_id = ?)")
	*args = append(*args, p.folderID)
}

// escapeLike escapes LIKE metacharacters in user input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// buildPredicate translates a Filter into the predicate tree shared by all
// query shapes:
//
//   - no terms: scope filters only (plain listing)
//   - tag terms only: all tags present, conjunctively
//   - content only: substring match on name OR camera OR any tag
//   - both: all tags present AND content matches name/camera
func buildPredicate(f Filter) predicate {
	var root andPred

	for _, tag := range f.TagTerms {
		root = append(root, tagExists{tag: tag})
	}

	if q := strings.TrimSpace(f.ContentQuery); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		content := orPred{
			likeMatch{column: "items.name", pattern: pattern},
			likeMatch{column: "items.camera", pattern: pattern},
		}
		// With tag terms present the content portion narrows within the tag
		// matches, so matching on yet more tags would be redundant.
		if len(f.TagTerms) == 0 {
			content = append(content, tagLike{pattern: pattern})
		}
		root = append(root, content)
	}

	if f.Type != "" {
		root = append(root, columnCompare{column: "items.type", op: "=", value: f.Type})
	}
	if f.FolderID != "" {
		root = append(root, folderMember{folderID: f.FolderID})
	}
	if f.TagContext != "" {
		root = append(root, tagExists{tag: f.TagContext})
	}

	return root
}

// renderWhere renders the filter to a WHERE fragment and its bound args.
// The fragment is always non-empty ("1=1" for an unconstrained filter).
func renderWhere(f Filter) (string, []interface{}) {
	var b strings.Builder
	var args []interface{}
	buildPredicate(f).appendSQL(&b, &args)
	return b.String(), args
}
