// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

// tableRowReader reads every row of one metadata table starting at off and
// returns the parsed rows (boxed as interface{} so a single dispatch map can
// hold every table shape), the number of bytes consumed, and any read error.
type tableRowReader func(pe *File, off uint32) (interface{}, uint32, error)

// pointerOrEditAndContinueTables never appear in optimized (#~) metadata; no
// row shape is specified for them here because no assembly this loader will
// ever see carries one. If the valid bitmap claims one is present, the
// stream cannot be trusted and the whole load aborts.
var pointerOrEditAndContinueTables = map[int]bool{
	FieldPtr:    true,
	MethodPtr:   true,
	ParamPtr:    true,
	EventPtr:    true,
	PropertyPtr: true,
	ENCLog:      true,
	ENCMap:      true,
}

// tableRowReaders maps every table tag this loader knows the row shape of to
// a reader. Built once; every entry here keeps a previously-unwired parse
// function (written against the real ECMA-335 column layout) exercised.
var tableRowReaders = map[int]tableRowReader{
	Module: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataModuleTable(off))
	},
	TypeRef: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataTypeRefTable(off))
	},
	TypeDef: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataTypeDefTable(off))
	},
	Field: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataFieldTable(off))
	},
	MethodDef: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataMethodDefTable(off))
	},
	Param: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataParamTable(off))
	},
	InterfaceImpl: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataInterfaceImplTable(off))
	},
	MemberRef: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataMemberRefTable(off))
	},
	Constant: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataConstantTable(off))
	},
	CustomAttribute: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataCustomAttributeTable(off))
	},
	FieldMarshal: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataFieldMarshalTable(off))
	},
	DeclSecurity: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataDeclSecurityTable(off))
	},
	ClassLayout: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataClassLayoutTable(off))
	},
	FieldLayout: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataFieldLayoutTable(off))
	},
	StandAloneSig: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataStandAloneSignTable(off))
	},
	EventMap: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataEventMapTable(off))
	},
	Event: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataEventTable(off))
	},
	PropertyMap: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataPropertyMapTable(off))
	},
	Property: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataPropertyTable(off))
	},
	MethodSemantics: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataMethodSemanticsTable(off))
	},
	MethodImpl: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataMethodImplTable(off))
	},
	ModuleRef: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataModuleRefTable(off))
	},
	TypeSpec: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataTypeSpecTable(off))
	},
	ImplMap: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataImplMapTable(off))
	},
	FieldRVA: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataFieldRVATable(off))
	},
	Assembly: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataAssemblyTable(off))
	},
	AssemblyProcessor: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataAssemblyProcessorTable(off))
	},
	AssemblyOS: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataAssemblyOSTable(off))
	},
	AssemblyRef: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataAssemblyRefTable(off))
	},
	AssemblyRefProcessor: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataAssemblyRefProcessorTable(off))
	},
	AssemblyRefOS: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataAssemblyRefOSTable(off))
	},
	FileMD: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataFileTable(off))
	},
	ExportedType: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataExportedTypeTable(off))
	},
	ManifestResource: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataManifestResourceTable(off))
	},
	NestedClass: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataNestedClassTable(off))
	},
	GenericParam: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataGenericParamTable(off))
	},
	MethodSpec: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataMethodSpecTable(off))
	},
	GenericParamConstraint: func(pe *File, off uint32) (interface{}, uint32, error) {
		return wrap3(pe.parseMetadataGenericParamConstraintTable(off))
	},
}

// wrap3 boxes the row slice returned by a strongly-typed parse function so
// it fits the uniform tableRowReader signature.
func wrap3[T any](rows T, n uint32, err error) (interface{}, uint32, error) {
	return rows, n, err
}

// parseMetadataTables walks the `valid` bitmap in ascending bit order,
// reading each present table's rows with the reader that knows its column
// layout, so the stream position stays synchronized for every table after
// them. A present tag in pointerOrEditAndContinueTables returns
// UnsupportedTableError, and a present tag with no row reader returns
// UnknownTableError; either aborts the load, since there is no way to know
// how many bytes to skip.
func (pe *File) parseMetadataTables(offset uint32) error {
	for tag := 0; tag <= GenericParamConstraint; tag++ {
		if !IsBitSet(pe.CLR.MetadataTablesStreamHeader.MaskValid, tag) {
			continue
		}

		table, ok := pe.CLR.MetadataTables[tag]
		if !ok {
			return &UnknownTableError{Tag: tag}
		}

		if pointerOrEditAndContinueTables[tag] {
			return &UnsupportedTableError{Tag: tag}
		}

		reader, ok := tableRowReaders[tag]
		if !ok {
			return &UnknownTableError{Tag: tag}
		}

		rows, n, err := reader(pe, offset)
		if err != nil {
			return err
		}
		table.Content = rows
		offset += n
	}
	return nil
}
