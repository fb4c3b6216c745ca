// Package source loads program ASTs from documents.
//
// Programs are not parsed from surface syntax; they arrive as a tree of
// statements and expressions encoded in CUE, YAML or JSON:
//
//	stmts: [
//		{assign: {target: "i", value: {int: 0}}},
//		{while: {
//			cond: {binary: {op: "<", left: {var: "i"}, right: {int: 3}}}
//			body: [
//				{expr: {call: {name: "print", args: [{var: "i"}]}}},
//				{assign: {target: "i", value: {binary: {op: "+", left: {var: "i"}, right: {int: 1}}}}},
//			]
//		}},
//	]
//
// Every format is first decoded into plain maps and slices and then turned
// into an ast.Module by one shared decoder, so all formats accept exactly the
// same shapes. A CUE document may also wrap the tree in a top-level
// `program` field.
package source
