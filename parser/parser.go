package parser

import (
	"fmt"
	"go/token"

	"github.com/mezzolang/mezzo/checker/ilerr"
	"github.com/mezzolang/mezzo/frontend/ast"
)

// Parse lexes and parses src (the contents of filename) into an
// ast.File. fset is the caller's token.FileSet; the returned
// positions are offsets into the file registered at base.
func Parse(fset *token.FileSet, filename string, src string) (*ast.File, *ilerr.Errors) {
	file := fset.AddFile(filename, -1, len(src))
	base := file.Pos(0)
	tokens, err := lex(base, src)
	if err != nil {
		return nil, (*ilerr.Errors)(nil).With(ilerr.New(ilerr.NewParse{
			Positioner: ast.Range{PosStart: base, PosEnd: base},
			Message:    err.Error(),
		}))
	}
	p := &parser{tokens: tokens}
	astFile, err := p.parseFile()
	if err != nil {
		return nil, (*ilerr.Errors)(nil).With(ilerr.New(ilerr.NewParse{
			Positioner: p.here(),
			Message:    err.Error(),
		}))
	}
	return astFile, nil
}

type parser struct {
	tokens []lexToken
	pos    int
	group  int
}

func (p *parser) cur() lexToken  { return p.tokens[p.pos] }
func (p *parser) here() ast.Range { return ast.Range{PosStart: p.cur().start, PosEnd: p.cur().end} }

func (p *parser) advance() lexToken {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *parser) atSymbol(s string) bool  { return p.cur().kind == tSymbol && p.cur().text == s }
func (p *parser) atKeyword(k string) bool { return p.cur().kind == tKeyword && p.cur().text == k }

func (p *parser) expectSymbol(s string) (lexToken, error) {
	if !p.atSymbol(s) {
		return lexToken{}, fmt.Errorf("expected %q, got %q at %v", s, p.cur().text, p.cur().start)
	}
	return p.advance(), nil
}

func (p *parser) expectKeyword(k string) (lexToken, error) {
	if !p.atKeyword(k) {
		return lexToken{}, fmt.Errorf("expected keyword %q, got %q at %v", k, p.cur().text, p.cur().start)
	}
	return p.advance(), nil
}

func (p *parser) expectIdent() (lexToken, error) {
	if p.cur().kind != tIdent {
		return lexToken{}, fmt.Errorf("expected identifier, got %q at %v", p.cur().text, p.cur().start)
	}
	return p.advance(), nil
}

// ---- top level ----

func (p *parser) parseFile() (*ast.File, error) {
	start := p.cur().start
	f := &ast.File{}
	for p.atKeyword("open") {
		o, err := p.parseOpen()
		if err != nil {
			return nil, err
		}
		f.Opens = append(f.Opens, o)
	}
	for p.cur().kind != tEOF {
		decls, err := p.parseDeclaration()
		if err != nil {
			return nil, err
		}
		f.Declarations = append(f.Declarations, decls...)
	}
	f.Range = ast.Range{PosStart: start, PosEnd: p.cur().end}
	return f, nil
}

func (p *parser) parseOpen() (ast.Open, error) {
	start, err := p.expectKeyword("open")
	if err != nil {
		return ast.Open{}, err
	}
	name, err := p.parseModulePath()
	if err != nil {
		return ast.Open{}, err
	}
	return ast.Open{Range: ast.Range{PosStart: start.start, PosEnd: p.cur().start}, ModuleName: name}, nil
}

func (p *parser) parseModulePath() (string, error) {
	first, err := p.expectIdent()
	if err != nil {
		return "", err
	}
	name := first.text
	for p.atSymbol(".") {
		p.advance()
		next, err := p.expectIdent()
		if err != nil {
			return "", err
		}
		name += "." + next.text
	}
	return name, nil
}

// parseDeclaration returns one or more declarations sharing source
// position: every case but `data ... and ...` produces exactly one,
// while a data group produces one *ast.DataDecl per `and`-joined
// member, all sharing a Group id for the frontend to regroup later.
func (p *parser) parseDeclaration() ([]ast.Declaration, error) {
	switch {
	case p.atKeyword("val"):
		d, err := p.parseValDecl()
		if err != nil {
			return nil, err
		}
		return []ast.Declaration{d}, nil
	case p.atKeyword("mutable") || p.atKeyword("data"):
		return p.parseDataGroup()
	case p.atKeyword("abstract"):
		d, err := p.parseAbstractDecl()
		if err != nil {
			return nil, err
		}
		return []ast.Declaration{d}, nil
	case p.atKeyword("interface"):
		d, err := p.parseInterfaceDecl()
		if err != nil {
			return nil, err
		}
		return []ast.Declaration{d}, nil
	default:
		return nil, fmt.Errorf("expected a declaration, got %q at %v", p.cur().text, p.cur().start)
	}
}

func (p *parser) parseValDecl() (*ast.ValDecl, error) {
	start, err := p.expectKeyword("val")
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	d := &ast.ValDecl{Name: name.text}
	if p.atSymbol(":") {
		p.advance()
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		d.TypeAnn = t
	}
	if _, err := p.expectSymbol("="); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	d.Value = value
	d.Range = ast.Range{PosStart: start.start, PosEnd: p.cur().start}
	return d, nil
}

func (p *parser) parseDataGroup() ([]ast.Declaration, error) {
	group := p.group
	p.group++
	first, err := p.parseOneDataDecl(group)
	if err != nil {
		return nil, err
	}
	members := []ast.Declaration{first}
	for p.atKeyword("and") {
		p.advance()
		next, err := p.parseOneDataDecl(group)
		if err != nil {
			return nil, err
		}
		members = append(members, next)
	}
	return members, nil
}

func (p *parser) parseOneDataDecl(group int) (*ast.DataDecl, error) {
	start := p.cur().start
	exclusive := false
	if p.atKeyword("mutable") {
		p.advance()
		exclusive = true
	}
	if _, err := p.expectKeyword("data"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	d := &ast.DataDecl{Name: name.text, Exclusive: exclusive, Group: group}
	for p.cur().kind == tIdent {
		param := p.advance()
		d.Params = append(d.Params, param.text)
	}
	if _, err := p.expectSymbol("="); err != nil {
		return nil, err
	}
	for {
		branch, err := p.parseDataBranch()
		if err != nil {
			return nil, err
		}
		d.Branches = append(d.Branches, branch)
		if p.atSymbol("|") {
			p.advance()
			continue
		}
		break
	}
	if p.atKeyword("adopts") {
		p.advance()
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		d.AdoptsClause = t
	}
	d.Range = ast.Range{PosStart: start, PosEnd: p.cur().start}
	return d, nil
}

func (p *parser) parseDataBranch() (ast.DataBranch, error) {
	start := p.cur().start
	name, err := p.expectIdent()
	if err != nil {
		return ast.DataBranch{}, err
	}
	b := ast.DataBranch{Datacon: name.text}
	if p.atSymbol("{") {
		p.advance()
		for !p.atSymbol("}") {
			fname, err := p.expectIdent()
			if err != nil {
				return ast.DataBranch{}, err
			}
			if _, err := p.expectSymbol(":"); err != nil {
				return ast.DataBranch{}, err
			}
			ftype, err := p.parseType()
			if err != nil {
				return ast.DataBranch{}, err
			}
			b.Fields = append(b.Fields, ast.FieldDecl{Name: fname.text, Type: ftype})
			if p.atSymbol(";") {
				p.advance()
			}
		}
		p.advance()
	}
	b.Range = ast.Range{PosStart: start, PosEnd: p.cur().start}
	return b, nil
}

func (p *parser) parseAbstractDecl() (*ast.AbstractTypeDecl, error) {
	start, err := p.expectKeyword("abstract")
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	d := &ast.AbstractTypeDecl{Name: name.text}
	if p.atSymbol("(") {
		p.advance()
		if p.cur().kind == tInt {
			d.Arity = int(p.advance().ival)
		}
		if _, err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
	}
	if p.atKeyword("duplicable") || p.atKeyword("exclusive") {
		d.Fact = p.advance().text
	}
	d.Range = ast.Range{PosStart: start.start, PosEnd: p.cur().start}
	return d, nil
}

func (p *parser) parseInterfaceDecl() (*ast.InterfaceDecl, error) {
	start, err := p.expectKeyword("interface")
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol("{"); err != nil {
		return nil, err
	}
	d := &ast.InterfaceDecl{}
	for !p.atSymbol("}") {
		v, err := p.parseValSignature()
		if err != nil {
			return nil, err
		}
		d.Signatures = append(d.Signatures, v)
	}
	p.advance()
	d.Range = ast.Range{PosStart: start.start, PosEnd: p.cur().start}
	return d, nil
}

func (p *parser) parseValSignature() (ast.ValDecl, error) {
	start, err := p.expectKeyword("val")
	if err != nil {
		return ast.ValDecl{}, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return ast.ValDecl{}, err
	}
	if _, err := p.expectSymbol(":"); err != nil {
		return ast.ValDecl{}, err
	}
	t, err := p.parseType()
	if err != nil {
		return ast.ValDecl{}, err
	}
	if p.atSymbol(";") {
		p.advance()
	}
	return ast.ValDecl{Range: ast.Range{PosStart: start.start, PosEnd: p.cur().start}, Name: name.text, TypeAnn: t}, nil
}

// ---- types ----

// parseType parses a full type expression, lowest precedence first:
// `and`/`=>` constraint forms wrap an arrow, which itself right-
// associates over comparand types built from application and tuples.
func (p *parser) parseType() (ast.Type, error) {
	return p.parseArrowType()
}

func (p *parser) parseArrowType() (ast.Type, error) {
	start := p.cur().start
	if p.atKeyword("forall") || p.atKeyword("exists") {
		return p.parseQuantifiedType()
	}
	if p.constraintKeywordAhead() {
		return p.parseConstraintedType(start)
	}
	left, err := p.parseStarType()
	if err != nil {
		return nil, err
	}
	if p.atSymbol("->") {
		p.advance()
		right, err := p.parseArrowType()
		if err != nil {
			return nil, err
		}
		return &ast.ArrowTypeExpr{Range: ast.Range{PosStart: start, PosEnd: p.cur().start}, Domain: left, Codomain: right}, nil
	}
	return left, nil
}

// constraintKeywordAhead reports whether the upcoming tokens form a
// `duplicable T [, ...] and Body` or `... => Body` constraint list;
// both forms start with a bare "duplicable"/"exclusive" keyword, which
// never otherwise opens a type.
func (p *parser) constraintKeywordAhead() bool {
	return p.atKeyword("duplicable") || p.atKeyword("exclusive")
}

func (p *parser) parseConstraintedType(start token.Pos) (ast.Type, error) {
	var constraints []ast.ConstraintExpr
	for {
		cstart := p.cur().start
		exclusive := false
		if p.atKeyword("exclusive") {
			exclusive = true
			p.advance()
		} else if _, err := p.expectKeyword("duplicable"); err != nil {
			return nil, err
		}
		t, err := p.parseStarType()
		if err != nil {
			return nil, err
		}
		constraints = append(constraints, ast.ConstraintExpr{
			Range:     ast.Range{PosStart: cstart, PosEnd: p.cur().start},
			Exclusive: exclusive,
			Type:      t,
		})
		if p.atSymbol(",") {
			p.advance()
			continue
		}
		break
	}
	imply := false
	switch {
	case p.atKeyword("and"):
		p.advance()
	case p.atSymbol("=>"):
		p.advance()
		imply = true
	default:
		return nil, fmt.Errorf("expected 'and' or '=>' after constraint list, got %q at %v", p.cur().text, p.cur().start)
	}
	body, err := p.parseArrowType()
	if err != nil {
		return nil, err
	}
	end := p.cur().start
	if imply {
		return &ast.ImplyTypeExpr{Range: ast.Range{PosStart: start, PosEnd: end}, Constraints: constraints, Body: body}, nil
	}
	return &ast.AndTypeExpr{Range: ast.Range{PosStart: start, PosEnd: end}, Constraints: constraints, Body: body}, nil
}

func (p *parser) parseQuantifiedType() (ast.Type, error) {
	start := p.cur().start
	exists := p.atKeyword("exists")
	p.advance()
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	kind := ast.KindType
	if p.atSymbol(":") {
		p.advance()
		k, err := p.expectKeyword2("term", "type", "perm")
		if err != nil {
			return nil, err
		}
		kind = ast.QuantifierKind(k.text)
	}
	if _, err := p.expectSymbol(".") ; err != nil {
		// Quantifier bodies may also be separated by a comma in some
		// surface renderings; accept either.
		if _, err2 := p.expectSymbol(","); err2 != nil {
			return nil, err
		}
	}
	body, err := p.parseArrowType()
	if err != nil {
		return nil, err
	}
	end := p.cur().start
	if exists {
		return &ast.ExistsTypeExpr{Range: ast.Range{PosStart: start, PosEnd: end}, VarName: name.text, Kind: kind, Body: body}, nil
	}
	return &ast.ForallTypeExpr{Range: ast.Range{PosStart: start, PosEnd: end}, VarName: name.text, Kind: kind, Body: body}, nil
}

func (p *parser) expectKeyword2(options ...string) (lexToken, error) {
	for _, o := range options {
		if p.atKeyword(o) {
			return p.advance(), nil
		}
	}
	return lexToken{}, fmt.Errorf("expected one of %v, got %q at %v", options, p.cur().text, p.cur().start)
}

func (p *parser) parseStarType() (ast.Type, error) {
	start := p.cur().start
	left, err := p.parseAnchoredType()
	if err != nil {
		return nil, err
	}
	for p.atSymbol("*") {
		p.advance()
		right, err := p.parseAnchoredType()
		if err != nil {
			return nil, err
		}
		left = &ast.StarTypeExpr{Range: ast.Range{PosStart: start, PosEnd: p.cur().start}, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnchoredType() (ast.Type, error) {
	start := p.cur().start
	if p.cur().kind == tIdent && p.peekSymbol(1, "@") {
		name := p.advance()
		p.advance()
		inner, err := p.parseAppType()
		if err != nil {
			return nil, err
		}
		return &ast.AnchoredTypeExpr{Range: ast.Range{PosStart: start, PosEnd: p.cur().start}, VarName: name.text, Type: inner}, nil
	}
	return p.parseAppType()
}

func (p *parser) peekSymbol(offset int, s string) bool {
	i := p.pos + offset
	if i >= len(p.tokens) {
		return false
	}
	return p.tokens[i].kind == tSymbol && p.tokens[i].text == s
}

func (p *parser) parseAppType() (ast.Type, error) {
	start := p.cur().start
	if p.atKeyword("empty") {
		p.advance()
		return &ast.EmptyTypeExpr{Range: ast.Range{PosStart: start, PosEnd: p.cur().start}}, nil
	}
	if p.atKeyword("dynamic") {
		p.advance()
		return &ast.DynamicTypeExpr{Range: ast.Range{PosStart: start, PosEnd: p.cur().start}}, nil
	}
	if p.atKeyword("unknown") {
		p.advance()
		return &ast.UnknownTypeExpr{Range: ast.Range{PosStart: start, PosEnd: p.cur().start}}, nil
	}
	if p.atSymbol("(") {
		return p.parseParenType()
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if !p.atSymbol("(") {
		return &ast.TypeVarRef{Range: ast.Range{PosStart: start, PosEnd: p.cur().start}, Name: name.text}, nil
	}
	p.advance()
	var args []ast.Type
	for !p.atSymbol(")") {
		a, err := p.parseArrowType()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.atSymbol(",") {
			p.advance()
		}
	}
	p.advance()
	return &ast.TypeApp{Range: ast.Range{PosStart: start, PosEnd: p.cur().start}, Name: name.text, Args: args}, nil
}

func (p *parser) parseParenType() (ast.Type, error) {
	start, err := p.expectSymbol("(")
	if err != nil {
		return nil, err
	}
	if p.atSymbol(")") {
		p.advance()
		return &ast.TupleTypeExpr{Range: ast.Range{PosStart: start.start, PosEnd: p.cur().start}}, nil
	}
	first, err := p.parseArrowType()
	if err != nil {
		return nil, err
	}
	if !p.atSymbol(",") {
		if _, err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		return first, nil
	}
	fields := []ast.Type{first}
	for p.atSymbol(",") {
		p.advance()
		f, err := p.parseArrowType()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	if _, err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	return &ast.TupleTypeExpr{Range: ast.Range{PosStart: start.start, PosEnd: p.cur().start}, Fields: fields}, nil
}

// ---- patterns ----

func (p *parser) parsePattern() (ast.Pattern, error) {
	start := p.cur().start
	switch {
	case p.cur().kind == tIdent && p.cur().text == "_":
		p.advance()
		return &ast.WildcardPattern{Range: ast.Range{PosStart: start, PosEnd: p.cur().start}}, nil
	case p.atSymbol("("):
		return p.parseParenPattern()
	case p.cur().kind == tIdent:
		name := p.advance()
		if !p.atSymbol("{") {
			return &ast.VarPattern{Range: ast.Range{PosStart: start, PosEnd: p.cur().start}, Name: name.text}, nil
		}
		p.advance()
		var fields []ast.FieldPattern
		for !p.atSymbol("}") {
			fname, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectSymbol("="); err != nil {
				return nil, err
			}
			sub, err := p.parsePattern()
			if err != nil {
				return nil, err
			}
			fields = append(fields, ast.FieldPattern{Name: fname.text, Pattern: sub})
			if p.atSymbol(";") {
				p.advance()
			}
		}
		p.advance()
		return &ast.ConstructPattern{Range: ast.Range{PosStart: start, PosEnd: p.cur().start}, Datacon: name.text, Fields: fields}, nil
	default:
		return nil, fmt.Errorf("expected a pattern, got %q at %v", p.cur().text, p.cur().start)
	}
}

func (p *parser) parseParenPattern() (ast.Pattern, error) {
	start, err := p.expectSymbol("(")
	if err != nil {
		return nil, err
	}
	if p.atSymbol(")") {
		p.advance()
		return &ast.TuplePattern{Range: ast.Range{PosStart: start.start, PosEnd: p.cur().start}}, nil
	}
	first, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	if !p.atSymbol(",") {
		if _, err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		return first, nil
	}
	elems := []ast.Pattern{first}
	for p.atSymbol(",") {
		p.advance()
		next, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		elems = append(elems, next)
	}
	if _, err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	return &ast.TuplePattern{Range: ast.Range{PosStart: start.start, PosEnd: p.cur().start}, Elems: elems}, nil
}

// ---- expressions ----

// parseExpr parses a full expression: a sequence of `;`-separated
// statements, each itself an optionally type-ascribed control or
// application expression. `;` binds looser than everything else so
// `r.contents <- 1; r.contents <- 2` sequences two assignments.
func (p *parser) parseExpr() (ast.Expr, error) {
	start := p.cur().start
	first, err := p.parseAscribedExpr()
	if err != nil {
		return nil, err
	}
	if !p.atSymbol(";") {
		return first, nil
	}
	p.advance()
	rest, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.SeqExpr{Range: ast.Range{PosStart: start, PosEnd: p.cur().start}, First: first, Second: rest}, nil
}

func (p *parser) parseAscribedExpr() (ast.Expr, error) {
	start := p.cur().start
	e, err := p.parseControlExpr()
	if err != nil {
		return nil, err
	}
	if !p.atSymbol(":") {
		return e, nil
	}
	p.advance()
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	return &ast.TypeAscExpr{Range: ast.Range{PosStart: start, PosEnd: p.cur().start}, Value: e, Type: t}, nil
}

// parseControlExpr handles the forms that span to the end of whatever
// follows them (let/letrec/fun/if/match/give/take/owns/fail), falling
// through to ordinary application for everything else.
func (p *parser) parseControlExpr() (ast.Expr, error) {
	switch {
	case p.atKeyword("let"):
		return p.parseLet()
	case p.atKeyword("fun"):
		return p.parseLambda()
	case p.atKeyword("if"):
		return p.parseIf()
	case p.atKeyword("match"):
		return p.parseMatch()
	case p.atKeyword("give"):
		return p.parseGive()
	case p.atKeyword("take"):
		return p.parseTake()
	case p.atKeyword("fail"):
		start := p.advance()
		return &ast.FailExpr{Range: ast.Range{PosStart: start.start, PosEnd: p.cur().start}}, nil
	default:
		return p.parseOwnsExpr()
	}
}

func (p *parser) parseOwnsExpr() (ast.Expr, error) {
	start := p.cur().start
	left, err := p.parseAppExpr()
	if err != nil {
		return nil, err
	}
	if !p.atKeyword("owns") {
		return left, nil
	}
	p.advance()
	right, err := p.parseAppExpr()
	if err != nil {
		return nil, err
	}
	return &ast.OwnsExpr{Range: ast.Range{PosStart: start, PosEnd: p.cur().start}, Adopter: left, Adoptee: right}, nil
}

func (p *parser) parseLet() (ast.Expr, error) {
	start, err := p.expectKeyword("let")
	if err != nil {
		return nil, err
	}
	if p.atKeyword("rec") {
		return p.parseLetRec(start)
	}
	pat, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol("="); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("in"); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.LetExpr{Range: ast.Range{PosStart: start.start, PosEnd: p.cur().start}, Pattern: pat, Value: value, Body: body}, nil
}

func (p *parser) parseLetRec(start lexToken) (ast.Expr, error) {
	if _, err := p.expectKeyword("rec"); err != nil {
		return nil, err
	}
	var names []string
	var values []ast.Expr
	for {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectSymbol("="); err != nil {
			return nil, err
		}
		v, err := p.parseAscribedExpr()
		if err != nil {
			return nil, err
		}
		names = append(names, name.text)
		values = append(values, v)
		if p.atKeyword("and") {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expectKeyword("in"); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.LetRecExpr{Range: ast.Range{PosStart: start.start, PosEnd: p.cur().start}, Names: names, Values: values, Body: body}, nil
}

func (p *parser) parseLambda() (ast.Expr, error) {
	start, err := p.expectKeyword("fun")
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	lam := &ast.LambdaExpr{}
	if !p.atSymbol(")") {
		pat, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		lam.Param = pat
		if p.atSymbol(":") {
			p.advance()
			t, err := p.parseType()
			if err != nil {
				return nil, err
			}
			lam.ParamType = t
		}
		if p.atSymbol("|") {
			p.advance()
			perm, err := p.parseType()
			if err != nil {
				return nil, err
			}
			lam.ParamPerm = perm
		}
	} else {
		lam.Param = &ast.WildcardPattern{Range: ast.Range{PosStart: p.cur().start, PosEnd: p.cur().start}}
		lam.ParamType = &ast.TupleTypeExpr{Range: ast.Range{PosStart: p.cur().start, PosEnd: p.cur().start}}
	}
	if _, err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	if p.atSymbol(":") {
		p.advance()
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		lam.ReturnType = t
	}
	if _, err := p.expectSymbol("->"); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	lam.Body = body
	lam.Range = ast.Range{PosStart: start.start, PosEnd: p.cur().start}
	return lam, nil
}

func (p *parser) parseIf() (ast.Expr, error) {
	start, err := p.expectKeyword("if")
	if err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("then"); err != nil {
		return nil, err
	}
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	var els ast.Expr
	if p.atKeyword("else") {
		p.advance()
		els, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	return &ast.IfExpr{Range: ast.Range{PosStart: start.start, PosEnd: p.cur().start}, Cond: cond, Then: then, Else: els}, nil
}

func (p *parser) parseMatch() (ast.Expr, error) {
	start, err := p.expectKeyword("match")
	if err != nil {
		return nil, err
	}
	scrutinee, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("with"); err != nil {
		return nil, err
	}
	if p.atSymbol("|") {
		p.advance()
	}
	var cases []ast.MatchCase
	for {
		pat, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectSymbol("->"); err != nil {
			return nil, err
		}
		body, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		cases = append(cases, ast.MatchCase{Pattern: pat, Body: body})
		if p.atSymbol("|") {
			p.advance()
			continue
		}
		break
	}
	return &ast.MatchExpr{Range: ast.Range{PosStart: start.start, PosEnd: p.cur().start}, Scrutinee: scrutinee, Cases: cases}, nil
}

func (p *parser) parseGive() (ast.Expr, error) {
	start, err := p.expectKeyword("give")
	if err != nil {
		return nil, err
	}
	adoptee, err := p.parseAppExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("to"); err != nil {
		return nil, err
	}
	adopter, err := p.parseAppExpr()
	if err != nil {
		return nil, err
	}
	return &ast.GiveExpr{Range: ast.Range{PosStart: start.start, PosEnd: p.cur().start}, Adoptee: adoptee, Adopter: adopter}, nil
}

func (p *parser) parseTake() (ast.Expr, error) {
	start, err := p.expectKeyword("take")
	if err != nil {
		return nil, err
	}
	adoptee, err := p.parseAppExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectKeyword("from"); err != nil {
		return nil, err
	}
	adopter, err := p.parseAppExpr()
	if err != nil {
		return nil, err
	}
	return &ast.TakeExpr{Range: ast.Range{PosStart: start.start, PosEnd: p.cur().start}, Adoptee: adoptee, Adopter: adopter}, nil
}

// parseAppExpr parses application and postfix forms: `f(a, b)`,
// `x.field`, and `x.field <- value`. Calls are written with explicit
// parentheses rather than bare juxtaposition, so `f()` applies f to
// unit and `f(a, b)` applies it to the pair (a, b).
func (p *parser) parseAppExpr() (ast.Expr, error) {
	start := p.cur().start
	e, err := p.parsePrimaryExpr()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.atSymbol("("):
			arg, err := p.parseCallArgs()
			if err != nil {
				return nil, err
			}
			e = &ast.AppExpr{Range: ast.Range{PosStart: start, PosEnd: p.cur().start}, Func: e, Arg: arg}
		case p.atSymbol("."):
			p.advance()
			field, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if p.atSymbol("<-") {
				p.advance()
				value, err := p.parseAppExpr()
				if err != nil {
					return nil, err
				}
				e = &ast.AssignExpr{Range: ast.Range{PosStart: start, PosEnd: p.cur().start}, Receiver: e, Field: field.text, Value: value}
				continue
			}
			e = &ast.FieldAccessExpr{Range: ast.Range{PosStart: start, PosEnd: p.cur().start}, Receiver: e, Field: field.text}
		default:
			return e, nil
		}
	}
}

func (p *parser) parseCallArgs() (ast.Expr, error) {
	start, err := p.expectSymbol("(")
	if err != nil {
		return nil, err
	}
	if p.atSymbol(")") {
		p.advance()
		return &ast.TupleExpr{Range: ast.Range{PosStart: start.start, PosEnd: p.cur().start}}, nil
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.atSymbol(",") {
		if _, err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		return first, nil
	}
	elems := []ast.Expr{first}
	for p.atSymbol(",") {
		p.advance()
		next, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, next)
	}
	if _, err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	return &ast.TupleExpr{Range: ast.Range{PosStart: start.start, PosEnd: p.cur().start}, Elems: elems}, nil
}

func (p *parser) parsePrimaryExpr() (ast.Expr, error) {
	start := p.cur().start
	switch {
	case p.cur().kind == tInt:
		tok := p.advance()
		return &ast.IntLit{Range: ast.Range{PosStart: start, PosEnd: p.cur().start}, Value: tok.ival}, nil
	case p.cur().kind == tString:
		tok := p.advance()
		return &ast.StringLit{Range: ast.Range{PosStart: start, PosEnd: p.cur().start}, Value: tok.text}, nil
	case p.atKeyword("true"), p.atKeyword("false"):
		tok := p.advance()
		return &ast.BoolLit{Range: ast.Range{PosStart: start, PosEnd: p.cur().start}, Value: tok.text == "true"}, nil
	case p.atSymbol("("):
		return p.parseParenExpr()
	case p.cur().kind == tIdent:
		name := p.advance()
		if !p.atSymbol("{") {
			return &ast.VarExpr{Range: ast.Range{PosStart: start, PosEnd: p.cur().start}, Name: name.text}, nil
		}
		p.advance()
		var fields []ast.FieldInit
		for !p.atSymbol("}") {
			fname, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectSymbol("="); err != nil {
				return nil, err
			}
			value, err := p.parseAscribedExpr()
			if err != nil {
				return nil, err
			}
			fields = append(fields, ast.FieldInit{Name: fname.text, Value: value})
			if p.atSymbol(";") {
				p.advance()
			}
		}
		p.advance()
		return &ast.ConstructExpr{Range: ast.Range{PosStart: start, PosEnd: p.cur().start}, Datacon: name.text, Fields: fields}, nil
	default:
		return nil, fmt.Errorf("expected an expression, got %q at %v", p.cur().text, p.cur().start)
	}
}

func (p *parser) parseParenExpr() (ast.Expr, error) {
	start, err := p.expectSymbol("(")
	if err != nil {
		return nil, err
	}
	if p.atSymbol(")") {
		p.advance()
		return &ast.TupleExpr{Range: ast.Range{PosStart: start.start, PosEnd: p.cur().start}}, nil
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.atSymbol(",") {
		if _, err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		return first, nil
	}
	elems := []ast.Expr{first}
	for p.atSymbol(",") {
		p.advance()
		next, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, next)
	}
	if _, err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	return &ast.TupleExpr{Range: ast.Range{PosStart: start.start, PosEnd: p.cur().start}, Elems: elems}, nil
}
