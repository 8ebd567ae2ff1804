package driver

import (
	"encoding/json"
	"fmt"

	"github.com/sigma-andex/purescript-backend-optimizer/internal/backend"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/directive"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/ident"
	"github.com/sigma-andex/purescript-backend-optimizer/internal/primop"
)

// exprJSON is the on-the-wire shape of one SurfaceExpr node, a
// flat "kind"-discriminated record mirroring RenderExpr's rendering
// scheme but structured for decoding rather than hashing. A module
// set arrives in this shape because parsing surface syntax into it is
// an external collaborator's job (spec.md §1); this decoder is the
// narrow seam the driver accepts input through.
type exprJSON struct {
	Kind string `json:"kind"`

	Name string `json:"name,omitempty"`

	IntValue    *int32   `json:"int,omitempty"`
	NumberValue *float64 `json:"number,omitempty"`
	StringValue *string  `json:"string,omitempty"`
	CharValue   *string  `json:"char,omitempty"`
	BoolValue   *bool    `json:"bool,omitempty"`

	Elements []exprJSON `json:"elements,omitempty"`
	Props    []propJSON `json:"props,omitempty"`

	Head *exprJSON  `json:"head,omitempty"`
	Args []exprJSON `json:"args,omitempty"`

	Params []string  `json:"params,omitempty"`
	Body   *exprJSON `json:"body,omitempty"`

	Binding *exprJSON `json:"binding,omitempty"`

	Bindings []recBindJSON `json:"bindings,omitempty"`

	M    *exprJSON `json:"m,omitempty"`
	Kont *exprJSON `json:"kont,omitempty"`

	Accessor string `json:"accessor,omitempty"`

	Pairs   []pairJSON `json:"pairs,omitempty"`
	Default *exprJSON  `json:"default,omitempty"`

	Op string `json:"op,omitempty"`

	Msg string `json:"msg,omitempty"`

	CtorType   string          `json:"ctorType,omitempty"`
	TyName     string          `json:"tyName,omitempty"`
	Tag        string          `json:"tag,omitempty"`
	Fields     []string        `json:"fields,omitempty"`
	Ctor       string          `json:"ctor,omitempty"`
	CtorArg    *exprJSON       `json:"ctorArg,omitempty"`
	CtorQ      string          `json:"ctorQ,omitempty"`
	CtorFields []ctorFieldJSON `json:"ctorFields,omitempty"`
}

type propJSON struct {
	Key   string   `json:"key"`
	Value exprJSON `json:"value"`
}

type recBindJSON struct {
	Name    string   `json:"name"`
	Binding exprJSON `json:"binding"`
}

type pairJSON struct {
	Guard exprJSON `json:"guard"`
	Body  exprJSON `json:"body"`
}

type ctorFieldJSON struct {
	Name  string   `json:"name"`
	Value exprJSON `json:"value"`
}

var primOpsByName = map[string]primop.Op{
	"not": primop.OpNot, "bitComplement": primop.OpBitComplement,
	"arrayLength": primop.OpArrayLength, "isTag": primop.OpIsTag,
	"and": primop.OpAnd, "or": primop.OpOr, "boolEq": primop.OpBoolEq,
	"eq": primop.OpEq, "neq": primop.OpNeq,
	"intLt": primop.OpIntLt, "intLte": primop.OpIntLte, "intGt": primop.OpIntGt, "intGte": primop.OpIntGte,
	"numLt": primop.OpNumLt, "numLte": primop.OpNumLte, "numGt": primop.OpNumGt, "numGte": primop.OpNumGte,
}

func decodeExpr(e exprJSON) (SurfaceExpr, error) {
	switch e.Kind {
	case "var":
		return SurfaceVar{Name: ident.Ident(e.Name)}, nil

	case "int":
		return SurfaceLit{Value: backend.LitInt{Value: *e.IntValue}}, nil
	case "number":
		return SurfaceLit{Value: backend.LitNumber{Value: *e.NumberValue}}, nil
	case "string":
		return SurfaceLit{Value: backend.LitString{Value: *e.StringValue}}, nil
	case "char":
		r := []rune(*e.CharValue)
		if len(r) != 1 {
			return nil, fmt.Errorf("driver: char literal must be one rune, got %q", *e.CharValue)
		}
		return SurfaceLit{Value: backend.LitChar{Value: r[0]}}, nil
	case "bool":
		return SurfaceLit{Value: backend.LitBool{Value: *e.BoolValue}}, nil

	case "array":
		els, err := decodeExprs(e.Elements)
		if err != nil {
			return nil, err
		}
		return SurfaceArray{Elements: els}, nil

	case "record":
		props, err := decodeProps(e.Props)
		if err != nil {
			return nil, err
		}
		return SurfaceRecord{Props: props}, nil

	case "app":
		head, args, err := decodeHeadArgs(e)
		if err != nil {
			return nil, err
		}
		return SurfaceApp{Head: head, Args: args}, nil

	case "uapp":
		head, args, err := decodeHeadArgs(e)
		if err != nil {
			return nil, err
		}
		return SurfaceUncurriedApp{Head: head, Args: args}, nil

	case "ueapp":
		head, args, err := decodeHeadArgs(e)
		if err != nil {
			return nil, err
		}
		return SurfaceUncurriedEffectApp{Head: head, Args: args}, nil

	case "abs":
		body, err := decodeExpr(*e.Body)
		if err != nil {
			return nil, err
		}
		return SurfaceAbs{Params: identList(e.Params), Body: body}, nil

	case "uabs":
		body, err := decodeExpr(*e.Body)
		if err != nil {
			return nil, err
		}
		return SurfaceUncurriedAbs{Params: identList(e.Params), Body: body}, nil

	case "ueabs":
		body, err := decodeExpr(*e.Body)
		if err != nil {
			return nil, err
		}
		return SurfaceUncurriedEffectAbs{Params: identList(e.Params), Body: body}, nil

	case "let":
		binding, err := decodeExpr(*e.Binding)
		if err != nil {
			return nil, err
		}
		body, err := decodeExpr(*e.Body)
		if err != nil {
			return nil, err
		}
		return SurfaceLet{Name: ident.Ident(e.Name), Binding: binding, Body: body}, nil

	case "letrec":
		bindings := make([]SurfaceRecBinding, len(e.Bindings))
		for i, rb := range e.Bindings {
			v, err := decodeExpr(rb.Binding)
			if err != nil {
				return nil, err
			}
			bindings[i] = SurfaceRecBinding{Name: ident.Ident(rb.Name), Binding: v}
		}
		body, err := decodeExpr(*e.Body)
		if err != nil {
			return nil, err
		}
		return SurfaceLetRec{Bindings: bindings, Body: body}, nil

	case "effectBind":
		m, err := decodeExpr(*e.M)
		if err != nil {
			return nil, err
		}
		kont, err := decodeExpr(*e.Kont)
		if err != nil {
			return nil, err
		}
		return SurfaceEffectBind{Name: ident.Ident(e.Name), M: m, Kont: kont}, nil

	case "effectPure":
		v, err := decodeExpr(*e.Body)
		if err != nil {
			return nil, err
		}
		return SurfaceEffectPure{Value: v}, nil

	case "accessor":
		expr, err := decodeExpr(*e.Body)
		if err != nil {
			return nil, err
		}
		return SurfaceAccessor{Expr: expr, Acc: backend.GetProp{Key: e.Accessor}}, nil

	case "update":
		expr, err := decodeExpr(*e.Body)
		if err != nil {
			return nil, err
		}
		props, err := decodeProps(e.Props)
		if err != nil {
			return nil, err
		}
		return SurfaceUpdate{Expr: expr, Props: props}, nil

	case "branch":
		pairs := make([]SurfaceBranchPair, len(e.Pairs))
		for i, p := range e.Pairs {
			guard, err := decodeExpr(p.Guard)
			if err != nil {
				return nil, err
			}
			body, err := decodeExpr(p.Body)
			if err != nil {
				return nil, err
			}
			pairs[i] = SurfaceBranchPair{Guard: guard, Body: body}
		}
		var def SurfaceExpr
		if e.Default != nil {
			var err error
			def, err = decodeExpr(*e.Default)
			if err != nil {
				return nil, err
			}
		}
		return SurfaceBranch{Pairs: pairs, Default: def}, nil

	case "primop":
		op, ok := primOpsByName[e.Op]
		if !ok {
			return nil, fmt.Errorf("driver: unknown primop %q", e.Op)
		}
		args, err := decodeExprs(e.Args)
		if err != nil {
			return nil, err
		}
		return SurfacePrimOp{Op: op, Args: args}, nil

	case "fail":
		return SurfaceFail{Msg: e.Msg}, nil

	case "ctorDef":
		return SurfaceCtorDef{
			CtorType: ctorTypeFromString(e.CtorType),
			TyName:   ident.Ident(e.TyName),
			Tag:      ident.Ident(e.Tag),
			Fields:   identList(e.Fields),
		}, nil

	case "ctorSaturated":
		fields := make([]SurfaceCtorField, len(e.CtorFields))
		for i, f := range e.CtorFields {
			v, err := decodeExpr(f.Value)
			if err != nil {
				return nil, err
			}
			fields[i] = SurfaceCtorField{Name: ident.Ident(f.Name), Value: v}
		}
		return SurfaceCtorSaturated{
			Q:        parseQualified(e.CtorQ),
			CtorType: ctorTypeFromString(e.CtorType),
			TyName:   ident.Ident(e.TyName),
			Tag:      ident.Ident(e.Tag),
			Fields:   fields,
		}, nil

	case "newtypeApp":
		arg, err := decodeExpr(*e.CtorArg)
		if err != nil {
			return nil, err
		}
		return SurfaceNewtypeApp{Ctor: parseQualified(e.Ctor), Arg: arg}, nil

	default:
		return nil, fmt.Errorf("driver: unknown surface expr kind %q", e.Kind)
	}
}

func decodeHeadArgs(e exprJSON) (SurfaceExpr, []SurfaceExpr, error) {
	head, err := decodeExpr(*e.Head)
	if err != nil {
		return nil, nil, err
	}
	args, err := decodeExprs(e.Args)
	if err != nil {
		return nil, nil, err
	}
	return head, args, nil
}

func decodeExprs(es []exprJSON) ([]SurfaceExpr, error) {
	out := make([]SurfaceExpr, len(es))
	for i, e := range es {
		conv, err := decodeExpr(e)
		if err != nil {
			return nil, err
		}
		out[i] = conv
	}
	return out, nil
}

func decodeProps(ps []propJSON) ([]SurfaceProp, error) {
	out := make([]SurfaceProp, len(ps))
	for i, p := range ps {
		v, err := decodeExpr(p.Value)
		if err != nil {
			return nil, err
		}
		out[i] = SurfaceProp{Key: p.Key, Value: v}
	}
	return out, nil
}

func identList(names []string) []ident.Ident {
	out := make([]ident.Ident, len(names))
	for i, n := range names {
		out[i] = ident.Ident(n)
	}
	return out
}

func ctorTypeFromString(s string) backend.CtorType {
	if s == "sum" {
		return backend.SumType
	}
	return backend.ProductType
}

func parseQualified(s string) ident.Qualified {
	return ident.Local(ident.Ident(s))
}

// moduleJSON is the on-the-wire shape of one module in a module set
// (spec.md §6 "Input").
type moduleJSON struct {
	Name       string            `json:"name"`
	ReExports  map[string]string `json:"reExports,omitempty"`
	Directives map[string]string `json:"directives,omitempty"`
	Groups     []bindGroupJSON   `json:"groups"`
}

type bindGroupJSON struct {
	Recursive bool       `json:"recursive"`
	Binds     []bindJSON `json:"binds"`
}

type bindJSON struct {
	Name string   `json:"name"`
	Expr exprJSON `json:"expr"`
}

func decodeDirective(s string) (directive.Directive, error) {
	switch s {
	case "never":
		return directive.InlineNever{}, nil
	case "always":
		return directive.InlineAlways{}, nil
	default:
		var n int
		if _, err := fmt.Sscanf(s, "arity:%d", &n); err == nil {
			return directive.InlineArity{N: n}, nil
		}
		return nil, fmt.Errorf("driver: unknown directive %q", s)
	}
}

// DecodeModuleSet parses a JSON document describing a pre-sorted list
// of modules into []SurfaceModule, the seam RunModules' caller uses to
// turn externally-parsed surface syntax into this package's input
// (spec.md §6).
func DecodeModuleSet(data []byte) ([]SurfaceModule, error) {
	var docs []moduleJSON
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, err
	}
	modules := make([]SurfaceModule, len(docs))
	for i, doc := range docs {
		modName := ident.ParseModuleName(doc.Name)
		m := SurfaceModule{
			Name:       modName,
			ReExports:  map[ident.Ident]ident.Qualified{},
			Directives: map[ident.Ident]directive.Directive{},
		}
		for name, q := range doc.ReExports {
			m.ReExports[ident.Ident(name)] = parseQualified(q)
		}
		for name, d := range doc.Directives {
			parsed, err := decodeDirective(d)
			if err != nil {
				return nil, err
			}
			m.Directives[ident.Ident(name)] = parsed
		}
		for _, g := range doc.Groups {
			group := BindGroup{Recursive: g.Recursive}
			for _, b := range g.Binds {
				expr, err := decodeExpr(b.Expr)
				if err != nil {
					return nil, fmt.Errorf("driver: module %s, binding %s: %w", doc.Name, b.Name, err)
				}
				group.Binds = append(group.Binds, Bind{Name: ident.Ident(b.Name), Expr: expr})
			}
			m.Groups = append(m.Groups, group)
		}
		modules[i] = m
	}
	return modules, nil
}
