package rdata

import "slices"

// Type is an R SEXP type code.
type Type int

const (
	NilType      Type = 0
	SymbolType   Type = 1
	PairType     Type = 2
	ClosureType  Type = 3
	EnvType      Type = 4
	PromiseType  Type = 5
	LangType     Type = 6
	SpecialType  Type = 7
	BuiltinType  Type = 8
	CharType     Type = 9
	LogicalType  Type = 10
	IntType      Type = 13
	RealType     Type = 14
	ComplexType  Type = 15
	StringType   Type = 16
	DotType      Type = 17
	ListType     Type = 19
	ExprType     Type = 20
	BytecodeType Type = 21
	ExtPtrType   Type = 22
	WeakRefType  Type = 23
	RawType      Type = 24
	S4Type       Type = 25
)

// Special serialization codes.
const (
	altrepSXP        = 238
	attrListSXP      = 239
	attrLangSXP      = 240
	baseEnvSXP       = 241
	emptyEnvSXP      = 242
	bcRepRefSXP      = 243
	bcRepDefSXP      = 244
	genericRefSXP    = 245
	classRefSXP      = 246
	persistSXP       = 247
	packageSXP       = 248
	namespaceSXP     = 249
	baseNamespaceSXP = 250
	missingArgSXP    = 251
	unboundSXP       = 252
	globalEnvSXP     = 253
	nilValueSXP      = 254
	refSXP           = 255
)

// NAInteger is R's integer and logical NA.
const NAInteger = -1 << 31

// Object is a decoded R value. Which fields are set depends on Type.
type Object struct {
	Type  Type
	Attrs []Pair
	// Ints holds INTSXP and LGLSXP data.
	Ints []int32
	// Reals holds REALSXP data and the real parts of CPLXSXP.
	Reals []float64
	// Strings holds STRSXP elements; NA marks NA_character_.
	Strings []String
	// Items holds VECSXP and EXPRSXP elements.
	Items []*Object
	// Pairs holds the cells of pairlist-like objects.
	Pairs []Pair
	// Text is the name of a symbol or the value of a CHARSXP.
	Text string
	NA   bool
	Raw  []byte
}

// String is one element of a character vector.
type String struct {
	S  string
	NA bool
}

// Pair is one cell of a pairlist.
type Pair struct {
	Tag   string
	Value *Object
}

// Attr returns the attribute with the given name, or nil.
func (o *Object) Attr(name string) *Object {
	if o == nil {
		return nil
	}
	for _, p := range o.Attrs {
		if p.Tag == name {
			return p.Value
		}
	}
	return nil
}

// Names returns the character values of a string vector.
func (o *Object) Names() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.Strings))
	for i, s := range o.Strings {
		out[i] = s.S
	}
	return out
}

// Class returns the class attribute.
func (o *Object) Class() []string {
	return o.Attr("class").Names()
}

// Inherits reports whether class is in the object's class attribute.
func (o *Object) Inherits(class string) bool {
	return slices.Contains(o.Class(), class)
}

// Len returns the vector length of o.
func (o *Object) Len() int {
	switch o.Type {
	case LogicalType, IntType:
		return len(o.Ints)
	case RealType, ComplexType:
		return len(o.Reals)
	case StringType:
		return len(o.Strings)
	case ListType, ExprType:
		return len(o.Items)
	case RawType:
		return len(o.Raw)
	case PairType, LangType:
		return len(o.Pairs)
	}
	return 0
}
