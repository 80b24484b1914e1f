// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"fmt"
	"strconv"
	"strings"
)

// stack is the symbolic expression stack a decompiler evaluates a method
// body against: rather than values, each slot holds the source-text
// expression that would have produced that value.
type stack struct {
	values []string
}

func (s *stack) push(v string) {
	s.values = append(s.values, v)
}

func (s *stack) pop() (string, error) {
	if len(s.values) == 0 {
		return "", ErrStackUnderflow
	}
	v := s.values[len(s.values)-1]
	s.values = s.values[:len(s.values)-1]
	return v, nil
}

// decompiler reconstructs a method body's symbolic expression-and-statement
// form from its lowered opcode stream, resolving call targets and local/
// argument types against the owning image's metadata tables.
type decompiler struct {
	pe          *File
	method      DecodedMethod
	labelTarget map[int32]bool
	stack       stack
	tempIndex   int
}

// localVarName and argVarName name a method's synthesized locals and
// parameters the same way across declaration and use.
func localVarName(index uint16) string { return fmt.Sprintf("var%d", index) }
func argVarName(index uint16) string   { return fmt.Sprintf("arg%d", index) }

// translateMethodPath renders a resolved call target as a qualified path,
// special-casing constructors the way a native-code reader expects `.ctor`
// to read as a `new` call and dropping a leading "this::" for direct
// same-type calls.
func translateMethodPath(target QualifiedTypeName, name string) string {
	var path string
	if strings.HasSuffix(name, ".ctor") {
		path = target.PathCxx() + "::new"
	} else {
		path = target.PathCxx() + "::" + strings.ReplaceAll(name, ".", "::")
	}
	return strings.TrimPrefix(path, "this::")
}

// Decompile renders a decoded method body as readable pseudocode. It is
// intentionally not a full C or C++ emitter: it exists to make the control
// and data flow a binary analyst would otherwise have to trace by hand
// visible as ordinary-looking statements.
func (pe *File) Decompile(m DecodedMethod) (string, error) {
	d := &decompiler{pe: pe, method: m, labelTarget: map[int32]bool{}}

	for _, op := range m.Lowered {
		if op.Kind == OpBranch || op.Kind == OpBranchConditional {
			d.labelTarget[int32(op.Offset+op.Size)+op.BranchDelta] = true
		}
	}

	var out strings.Builder

	attrs := ""
	if m.Flags&MethodAttrStatic != 0 {
		attrs = "static "
	}

	retType := "void"
	paramList := ""
	if m.Signature != nil {
		retType = pe.DebugPrint(m.Signature.RetType)
		parts := make([]string, len(m.Signature.Params))
		for i, p := range m.Signature.Params {
			parts[i] = fmt.Sprintf("%s %s", pe.DebugPrint(p), argVarName(uint16(i)))
		}
		paramList = strings.Join(parts, ", ")
	}
	fmt.Fprintf(&out, "%s%s %s(%s) {\n", attrs, retType, m.Name, paramList)

	for i, local := range m.Locals {
		fmt.Fprintf(&out, "    %s %s{};\n", pe.DebugPrint(local), localVarName(uint16(i)))
	}
	if len(m.Locals) > 0 {
		out.WriteString("\n")
	}

	for _, op := range m.Lowered {
		if d.labelTarget[int32(op.Offset)] {
			fmt.Fprintf(&out, "IL_%04x:\n", op.Offset)
		}

		if err := d.emit(&out, op); err != nil {
			return "", err
		}
	}

	out.WriteString("}\n")
	return out.String(), nil
}

func (d *decompiler) emit(out *strings.Builder, op Opcode) error {
	switch op.Kind {
	case OpNop, OpBreak:
		return nil

	case OpLoadConstantI4:
		d.stack.push(strconv.FormatInt(int64(op.I4), 10))
	case OpLoadConstantI8:
		d.stack.push(strconv.FormatInt(op.I8, 10))
	case OpLoadConstantR4:
		d.stack.push(strconv.FormatFloat(float64(op.R4), 'g', -1, 32))
	case OpLoadConstantR8:
		d.stack.push(strconv.FormatFloat(op.R8, 'g', -1, 64))

	case OpLoadLocal:
		d.stack.push(localVarName(op.Index))
	case OpLoadLocalAddress:
		d.stack.push("&" + localVarName(op.Index))
	case OpStoreLocal:
		v, err := d.stack.pop()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "    %s = %s;\n", localVarName(op.Index), v)

	case OpLoadArg:
		d.stack.push(argVarName(op.Index))
	case OpLoadArgAddress:
		d.stack.push("&" + argVarName(op.Index))

	case OpLoadString:
		s, err := d.pe.CLR.Heaps.UserStrings.Get(op.Token.Index())
		if err != nil {
			return err
		}
		d.stack.push(strconv.Quote(s))

	case OpAdd, OpSubtract, OpMultiply, OpDivide, OpRemainder,
		OpShiftLeft, OpShiftRight, OpAnd, OpOr, OpXor:
		right, err := d.stack.pop()
		if err != nil {
			return err
		}
		left, err := d.stack.pop()
		if err != nil {
			return err
		}
		d.stack.push(fmt.Sprintf("(%s %s %s)", left, binaryOperator(op.Kind), right))

	case OpCompare:
		right, err := d.stack.pop()
		if err != nil {
			return err
		}
		left, err := d.stack.pop()
		if err != nil {
			return err
		}
		d.stack.push(fmt.Sprintf("%s %s %s", left, op.Comparison.Operator(), right))

	case OpReturn:
		if d.method.Signature == nil || d.method.Signature.RetType.Kind == ElemVoid {
			out.WriteString("    return;\n")
			return nil
		}
		v, err := d.stack.pop()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "    return %s;\n", v)

	case OpCall:
		return d.emitCall(out, op)

	case OpBranch:
		fmt.Fprintf(out, "    goto IL_%04x;\n", int32(op.Offset+op.Size)+op.BranchDelta)

	case OpBranchConditional:
		var expr string
		if op.Comparison.IsTrueFalse() {
			v, err := d.stack.pop()
			if err != nil {
				return err
			}
			expr = v + " " + op.Comparison.Operator()
		} else {
			rhs, err := d.stack.pop()
			if err != nil {
				return err
			}
			lhs, err := d.stack.pop()
			if err != nil {
				return err
			}
			expr = lhs + " " + op.Comparison.Operator() + " " + rhs
		}
		fmt.Fprintf(out, "    if (%s) goto IL_%04x;\n", expr, int32(op.Offset+op.Size)+op.BranchDelta)

	case OpConvertToI1:
		return d.emitConvert(out, "int8")
	case OpConvertToI2:
		return d.emitConvert(out, "int16")
	case OpConvertToI4:
		return d.emitConvert(out, "int32")
	case OpConvertToI8:
		return d.emitConvert(out, "int64")

	case OpSwitch, OpSetField:
		// raw byte unavailable after lowering
		return &UnimplementedOpcodeError{Opcode: 0, Offset: op.Offset}

	default:
		// raw byte unavailable after lowering
		return &UnimplementedOpcodeError{Opcode: 0, Offset: op.Offset}
	}
	return nil
}

func (d *decompiler) emitConvert(out *strings.Builder, castType string) error {
	v, err := d.stack.pop()
	if err != nil {
		return err
	}
	d.stack.push(fmt.Sprintf("static_cast<%s>(%s)", castType, v))
	return nil
}

func binaryOperator(k OpcodeKind) string {
	switch k {
	case OpAdd:
		return "+"
	case OpSubtract:
		return "-"
	case OpMultiply:
		return "*"
	case OpDivide:
		return "/"
	case OpRemainder:
		return "%"
	case OpShiftLeft:
		return "<<"
	case OpShiftRight:
		return ">>"
	case OpAnd:
		return "&"
	case OpOr:
		return "|"
	case OpXor:
		return "^"
	default:
		return "?"
	}
}

func (d *decompiler) emitCall(out *strings.Builder, op Opcode) error {
	resolved, err := d.pe.resolveMethod(op.Token)
	if err != nil {
		return err
	}

	paramCount := 0
	hasThis := false
	if resolved.Signature != nil {
		paramCount = len(resolved.Signature.Params)
		hasThis = resolved.Signature.Header.HasThis
	}

	args := make([]string, paramCount)
	for i := paramCount - 1; i >= 0; i-- {
		v, err := d.stack.pop()
		if err != nil {
			return err
		}
		args[i] = v
	}
	if hasThis {
		this, err := d.stack.pop()
		if err != nil {
			return err
		}
		args = append([]string{this}, args...)
	}

	path := translateMethodPath(resolved.DeclaringType, resolved.Name)
	voidReturn := resolved.Signature == nil || resolved.Signature.RetType.Kind == ElemVoid
	if voidReturn {
		fmt.Fprintf(out, "    %s(%s);\n", path, strings.Join(args, ", "))
		return nil
	}

	temp := fmt.Sprintf("temp%d", d.tempIndex)
	d.tempIndex++
	fmt.Fprintf(out, "    auto %s = %s(%s);\n", temp, path, strings.Join(args, ", "))
	d.stack.push(temp)
	return nil
}
