package driver

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sigma-andex/purescript-backend-optimizer/internal/backend"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ident"
)

// SchemaImplementations is the schema tag stamped on a marshaled
// Implementations map, the same "Schema string field" convention
// internal/iface/json.go and internal/manifest/manifest.go use to
// version their own on-disk formats.
const SchemaImplementations = "backend.implementations/v1"

// implRecordJSON is the on-disk shape of one published declaration:
// a flat, schema-tagged snapshot rather than a reconstructable
// backend.Expr tree, since the persisted form exists for caching and
// change-detection (feeding Digest) across process runs, not for
// resupplying this process's own in-memory Implementations, which the
// module fold already carries forward directly.
type implRecordJSON struct {
	Kind  string   `json:"kind"`
	Group []string `json:"group,omitempty"`
	Expr  string   `json:"expr,omitempty"`

	DictProps []dictPropJSON `json:"dictProps,omitempty"`

	CtorType string   `json:"ctorType,omitempty"`
	TyName   string   `json:"tyName,omitempty"`
	Tag      string   `json:"tag,omitempty"`
	Fields   []string `json:"fields,omitempty"`
}

type dictPropJSON struct {
	Key  string `json:"key"`
	Expr string `json:"expr"`
}

type implementationsJSON struct {
	Schema  string                     `json:"schema"`
	Entries map[string]implRecordJSON `json:"entries"`
}

func identStrings(ids []ident.Ident) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func qualifiedStrings(qs []ident.Qualified) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.String()
	}
	return out
}

func ctorTypeString(ct backend.CtorType) string {
	if ct == backend.ProductType {
		return "product"
	}
	return "sum"
}

func toRecordJSON(entry ImplEntry) (implRecordJSON, error) {
	switch impl := entry.Impl.(type) {
	case ImplExpr:
		return implRecordJSON{Kind: "expr", Group: qualifiedStrings(impl.Group), Expr: RenderExpr(impl.Expr)}, nil

	case ImplRec:
		return implRecordJSON{Kind: "rec", Group: qualifiedStrings(impl.Group), Expr: RenderExpr(impl.Expr)}, nil

	case ImplDict:
		props := make([]dictPropJSON, len(impl.Props))
		for i, p := range impl.Props {
			props[i] = dictPropJSON{Key: p.Key, Expr: RenderExpr(p.Expr)}
		}
		return implRecordJSON{Kind: "dict", Group: qualifiedStrings(impl.Group), DictProps: props}, nil

	case ImplCtor:
		return implRecordJSON{
			Kind:     "ctor",
			CtorType: ctorTypeString(impl.CtorType),
			TyName:   impl.TyName.String(),
			Tag:      impl.Tag.String(),
			Fields:   identStrings(impl.Fields),
		}, nil

	default:
		return implRecordJSON{}, fmt.Errorf("driver: unknown Impl shape %T", entry.Impl)
	}
}

// MarshalImplementations renders impls as a schema-tagged JSON
// document with deterministic key ordering, the same discipline
// internal/manifest uses via sort.Strings before encoding (spec.md
// §3.1, §6 "implementations").
func MarshalImplementations(impls Implementations) ([]byte, error) {
	doc := implementationsJSON{Schema: SchemaImplementations, Entries: map[string]implRecordJSON{}}
	keys := make([]string, 0, len(impls))
	for k := range impls {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rec, err := toRecordJSON(impls[k])
		if err != nil {
			return nil, err
		}
		doc.Entries[k] = rec
	}
	return json.MarshalIndent(doc, "", "  ")
}

// UnmarshalImplementations parses a document produced by
// MarshalImplementations back into its flat per-declaration records,
// keyed by qualified name. It returns implRecordJSON snapshots rather
// than live Impl values: reconstructing an executable backend.Expr
// from its rendered text is deliberately out of scope, since nothing
// in this module's pipeline needs to resume mid-fold from a persisted
// cache (see implRecordJSON's doc comment).
func UnmarshalImplementations(data []byte) (schema string, entries map[string]implRecordJSON, err error) {
	var doc implementationsJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", nil, err
	}
	return doc.Schema, doc.Entries, nil
}

// RenderExpr produces a deterministic textual rendering of e, used
// both as the JSON "expr" field and as Digest's hash input — a
// canonical S-expression form that two structurally equal trees
// always render identically to, and differently-shaped trees never
// collide on (barring the hash function itself).
func RenderExpr(e backend.Expr) string {
	var b strings.Builder
	renderExpr(&b, e)
	return b.String()
}

func renderExpr(b *strings.Builder, e backend.Expr) {
	switch n := e.(type) {
	case backend.Var:
		b.WriteString("(var ")
		b.WriteString(n.Q.String())
		b.WriteByte(')')

	case backend.Local:
		b.WriteString("(local ")
		if n.Id != nil {
			b.WriteString(n.Id.String())
		}
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(int(n.Lvl)))
		b.WriteByte(')')

	case backend.Lit:
		b.WriteString("(lit ")
		renderLiteral(b, n.Value)
		b.WriteByte(')')

	case backend.Fail:
		b.WriteString("(fail ")
		b.WriteString(strconv.Quote(n.Msg))
		b.WriteByte(')')

	case backend.CtorDef:
		b.WriteString("(ctordef ")
		b.WriteString(ctorTypeString(n.CtorType))
		b.WriteByte(' ')
		b.WriteString(n.TyName.String())
		b.WriteByte(' ')
		b.WriteString(n.Tag.String())
		for _, f := range n.Fields {
			b.WriteByte(' ')
			b.WriteString(f.String())
		}
		b.WriteByte(')')

	case backend.CtorSaturated:
		b.WriteString("(ctor ")
		b.WriteString(n.Q.String())
		for _, f := range n.Fields {
			b.WriteString(" (")
			b.WriteString(f.Name.String())
			b.WriteString(" ")
			renderExpr(b, f.Value)
			b.WriteString(")")
		}
		b.WriteByte(')')

	case backend.App:
		b.WriteString("(app ")
		renderExpr(b, n.Head)
		renderExprs(b, n.Args)
		b.WriteByte(')')

	case backend.Abs:
		b.WriteString("(abs (")
		renderParams(b, n.Params)
		b.WriteString(") ")
		renderExpr(b, n.Body)
		b.WriteByte(')')

	case backend.UncurriedApp:
		b.WriteString("(uapp ")
		renderExpr(b, n.Head)
		renderExprs(b, n.Args)
		b.WriteByte(')')

	case backend.UncurriedAbs:
		b.WriteString("(uabs (")
		renderParams(b, n.Params)
		b.WriteString(") ")
		renderExpr(b, n.Body)
		b.WriteByte(')')

	case backend.UncurriedEffectApp:
		b.WriteString("(ueapp ")
		renderExpr(b, n.Head)
		renderExprs(b, n.Args)
		b.WriteByte(')')

	case backend.UncurriedEffectAbs:
		b.WriteString("(ueabs (")
		renderParams(b, n.Params)
		b.WriteString(") ")
		renderExpr(b, n.Body)
		b.WriteByte(')')

	case backend.Let:
		b.WriteString("(let ")
		if n.Id != nil {
			b.WriteString(n.Id.String())
		}
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(int(n.Lvl)))
		b.WriteByte(' ')
		renderExpr(b, n.Binding)
		b.WriteByte(' ')
		renderExpr(b, n.Body)
		b.WriteByte(')')

	case backend.LetRec:
		b.WriteString("(letrec (")
		for i, rb := range n.Bindings {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteByte('(')
			if rb.Id != nil {
				b.WriteString(rb.Id.String())
			}
			b.WriteByte(' ')
			b.WriteString(strconv.Itoa(int(rb.Lvl)))
			b.WriteByte(' ')
			renderExpr(b, rb.Value)
			b.WriteByte(')')
		}
		b.WriteString(") ")
		renderExpr(b, n.Body)
		b.WriteByte(')')

	case backend.EffectBind:
		b.WriteString("(ebind ")
		if n.Id != nil {
			b.WriteString(n.Id.String())
		}
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(int(n.Lvl)))
		b.WriteByte(' ')
		renderExpr(b, n.M)
		b.WriteByte(' ')
		renderExpr(b, n.Kont)
		b.WriteByte(')')

	case backend.EffectPure:
		b.WriteString("(epure ")
		renderExpr(b, n.Value)
		b.WriteByte(')')

	case backend.AccessorExpr:
		b.WriteString("(accessor ")
		renderExpr(b, n.Expr)
		b.WriteByte(' ')
		renderAccessor(b, n.Acc)
		b.WriteByte(')')

	case backend.Update:
		b.WriteString("(update ")
		renderExpr(b, n.Expr)
		for _, p := range n.Props {
			b.WriteString(" (")
			b.WriteString(p.Key)
			b.WriteByte(' ')
			renderExpr(b, p.Value)
			b.WriteByte(')')
		}
		b.WriteByte(')')

	case backend.Branch:
		b.WriteString("(branch")
		for _, p := range n.Pairs {
			b.WriteString(" (")
			renderExpr(b, p.Guard)
			b.WriteByte(' ')
			renderExpr(b, p.Body)
			b.WriteByte(')')
		}
		if n.Default != nil {
			b.WriteString(" (default ")
			renderExpr(b, n.Default)
			b.WriteByte(')')
		}
		b.WriteByte(')')

	case backend.PrimOpExpr:
		b.WriteString("(primop ")
		b.WriteString(strconv.Itoa(int(n.Op)))
		renderExprs(b, n.Args)
		b.WriteByte(')')

	case backend.RewriteInline:
		b.WriteString("(rw-inline ")
		if n.Id != nil {
			b.WriteString(n.Id.String())
		}
		b.WriteByte(' ')
		renderExpr(b, n.Binding)
		b.WriteByte(' ')
		renderExpr(b, n.Body)
		b.WriteByte(')')

	case backend.RewriteLetAssoc:
		b.WriteString("(rw-let-assoc")
		for _, bd := range n.Bindings {
			b.WriteString(" (")
			if bd.Id != nil {
				b.WriteString(bd.Id.String())
			}
			b.WriteByte(' ')
			renderExpr(b, bd.Binding)
			b.WriteByte(')')
		}
		b.WriteString(") ")
		renderExpr(b, n.Body)
		b.WriteByte(')')

	case backend.RewriteStop:
		b.WriteString("(rw-stop ")
		b.WriteString(n.Q.String())
		b.WriteByte(')')

	default:
		b.WriteString(fmt.Sprintf("(unknown %T)", e))
	}
}

func renderExprs(b *strings.Builder, es []backend.Expr) {
	for _, e := range es {
		b.WriteByte(' ')
		renderExpr(b, e)
	}
}

func renderAccessor(b *strings.Builder, acc backend.Accessor) {
	switch a := acc.(type) {
	case backend.GetProp:
		b.WriteString("prop ")
		b.WriteString(a.Key)
	case backend.GetIndex:
		b.WriteString("index ")
		b.WriteString(strconv.Itoa(a.Index))
	case backend.GetOffset:
		b.WriteString("offset ")
		b.WriteString(strconv.Itoa(a.Index))
	default:
		b.WriteString(fmt.Sprintf("unknown %T", acc))
	}
}

func renderParams(b *strings.Builder, params []backend.Param) {
	for i, p := range params {
		if i > 0 {
			b.WriteByte(' ')
		}
		if p.Id != nil {
			b.WriteString(p.Id.String())
		}
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(int(p.Lvl)))
	}
}

func renderLiteral(b *strings.Builder, lit backend.Literal) {
	switch v := lit.(type) {
	case backend.LitInt:
		b.WriteString("int ")
		b.WriteString(strconv.Itoa(int(v.Value)))
	case backend.LitNumber:
		b.WriteString("num ")
		b.WriteString(strconv.FormatFloat(v.Value, 'g', -1, 64))
	case backend.LitString:
		b.WriteString("str ")
		b.WriteString(strconv.Quote(v.Value))
	case backend.LitChar:
		b.WriteString("char ")
		b.WriteString(strconv.QuoteRune(v.Value))
	case backend.LitBool:
		b.WriteString("bool ")
		b.WriteString(strconv.FormatBool(v.Value))
	case backend.LitArray:
		b.WriteString("array")
		renderExprs(b, v.Elements)
	case backend.LitRecord:
		b.WriteString("record")
		for _, p := range v.Props {
			b.WriteString(" (")
			b.WriteString(p.Key)
			b.WriteByte(' ')
			renderExpr(b, p.Value)
			b.WriteByte(')')
		}
	default:
		b.WriteString(fmt.Sprintf("unknown %T", lit))
	}
}
