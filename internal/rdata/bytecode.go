package rdata

import (
	"fmt"
	"math"
	"strconv"
)

// bytecode skips a compiled closure body. Only the reference table side
// effects matter; the decoded constants are discarded.
func (d *decoder) bytecode() error {
	n, err := d.int()
	if err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("negative byte code reference count %d", n)
	}
	if err := d.check(int(n), 1); err != nil {
		return err
	}
	reps := make([]*Object, n)
	return d.bytecode1(reps)
}

func (d *decoder) bytecode1(reps []*Object) error {
	if _, err := d.item(); err != nil {
		return err
	}
	n, err := d.int()
	if err != nil {
		return err
	}
	for i := int32(0); i < n; i++ {
		typ, err := d.int()
		if err != nil {
			return err
		}
		switch int(typ) {
		case int(BytecodeType):
			err = d.bytecode1(reps)
		case int(LangType), int(PairType), bcRepDefSXP, bcRepRefSXP, attrLangSXP, attrListSXP:
			_, err = d.bytecodeLang(int(typ), reps)
		default:
			_, err = d.item()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) bytecodeLang(typ int, reps []*Object) (*Object, error) {
	switch typ {
	case bcRepRefSXP:
		i, err := d.int()
		if err != nil {
			return nil, err
		}
		if i < 0 || int(i) >= len(reps) {
			return nil, fmt.Errorf("byte code reference %d out of range", i)
		}
		return reps[i], nil
	case bcRepDefSXP, int(LangType), int(PairType), attrLangSXP, attrListSXP:
		pos := -1
		if typ == bcRepDefSXP {
			p, err := d.int()
			if err != nil {
				return nil, err
			}
			t, err := d.int()
			if err != nil {
				return nil, err
			}
			pos, typ = int(p), int(t)
		}
		o := &Object{Type: LangType}
		if pos >= 0 {
			if pos >= len(reps) {
				return nil, fmt.Errorf("byte code definition %d out of range", pos)
			}
			reps[pos] = o
		}
		if typ == attrLangSXP || typ == attrListSXP {
			if _, err := d.item(); err != nil {
				return nil, err
			}
		}
		tag, err := d.item()
		if err != nil {
			return nil, err
		}
		var name string
		if tag != nil {
			name = tag.Text
		}
		for k := 0; k < 2; k++ {
			t, err := d.int()
			if err != nil {
				return nil, err
			}
			v, err := d.bytecodeLang(int(t), reps)
			if err != nil {
				return nil, err
			}
			if k == 0 {
				o.Pairs = append(o.Pairs, Pair{Tag: name, Value: v})
			}
		}
		return o, nil
	default:
		return d.item()
	}
}

// altrep expands a compact or wrapped vector into its ordinary form.
func (d *decoder) altrep() (*Object, error) {
	info, err := d.item()
	if err != nil {
		return nil, err
	}
	state, err := d.item()
	if err != nil {
		return nil, err
	}
	attr, err := d.item()
	if err != nil {
		return nil, err
	}
	var class string
	if info != nil && len(info.Pairs) > 0 && info.Pairs[0].Value != nil {
		class = info.Pairs[0].Value.Text
	}
	o, err := expandAltrep(class, state)
	if err != nil {
		return nil, err
	}
	if attr != nil {
		o.Attrs = attr.Pairs
	}
	return o, nil
}

func expandAltrep(class string, state *Object) (*Object, error) {
	switch class {
	case "compact_intseq", "compact_realseq":
		if state == nil || len(state.Reals) != 3 {
			return nil, fmt.Errorf("malformed %s state", class)
		}
		n, start, step := int(state.Reals[0]), state.Reals[1], state.Reals[2]
		if class == "compact_intseq" {
			o := &Object{Type: IntType, Ints: make([]int32, n)}
			for i := range o.Ints {
				o.Ints[i] = int32(start + float64(i)*step)
			}
			return o, nil
		}
		o := &Object{Type: RealType, Reals: make([]float64, n)}
		for i := range o.Reals {
			o.Reals[i] = start + float64(i)*step
		}
		return o, nil
	case "deferred_string":
		if state == nil || len(state.Pairs) == 0 || state.Pairs[0].Value == nil {
			return nil, fmt.Errorf("malformed deferred_string state")
		}
		src := state.Pairs[0].Value
		o := &Object{Type: StringType}
		switch src.Type {
		case IntType:
			for _, v := range src.Ints {
				if v == NAInteger {
					o.Strings = append(o.Strings, String{NA: true})
					continue
				}
				o.Strings = append(o.Strings, String{S: strconv.Itoa(int(v))})
			}
		case RealType:
			for _, v := range src.Reals {
				if math.IsNaN(v) {
					o.Strings = append(o.Strings, String{NA: true})
					continue
				}
				o.Strings = append(o.Strings, String{S: strconv.FormatFloat(v, 'g', 15, 64)})
			}
		default:
			return nil, fmt.Errorf("deferred_string over type %d", src.Type)
		}
		return o, nil
	case "wrap_integer", "wrap_logical", "wrap_real", "wrap_complex", "wrap_raw", "wrap_string", "wrap_list":
		if state == nil || len(state.Items) == 0 || state.Items[0] == nil {
			return nil, fmt.Errorf("malformed %s state", class)
		}
		c := *state.Items[0]
		return &c, nil
	}
	return nil, fmt.Errorf("unsupported ALTREP class %q", class)
}
