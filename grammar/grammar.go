package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Program is one parsed source file.
type Program struct {
	Pos      lexer.Position
	Elements []*Element `@@*`
}

type Element struct {
	Pos       lexer.Position
	Import    *Import    `  @@`
	Export    bool       `| ( @"export" "default"? )? (`
	Interface *Interface `    @@`
	Class     *Class     `  | @@`
	Constant  *Constant  `  | @@ )`
}

// Import covers `import {a, b} from "m"`, `import * as m from "m"` and `import m from "m"`.
type Import struct {
	Pos       lexer.Position
	Names     []string `"import" ( "{" ( @Ident ( "," @Ident )* ","? )? "}"`
	Namespace string   `  | "*" "as" @Ident`
	Default   string   `  | @Ident )`
	From      string   `"from" @String ";"?`
}

type Interface struct {
	Pos    lexer.Position
	Name   string            `"interface" @Ident`
	Fields []*InterfaceField `"{" @@* "}"`
}

type InterfaceField struct {
	Pos  lexer.Position
	Name string   `@Ident "?"?`
	Type *TypeRef `":" @@ ( ";" | "," )?`
}

type Constant struct {
	Pos   lexer.Position
	Kind  string      `@( "const" | "let" )`
	Name  string      `@Ident`
	Type  *TypeRef    `( ":" @@ )?`
	Value *Expression `"=" @@ ";"?`
}

type Class struct {
	Pos     lexer.Position
	Name    string         `"class" @Ident`
	Extends []string       `( "extends" @Ident ( "," @Ident )* )?`
	Members []*ClassMember `"{" @@* "}"`
}

type ClassMember struct {
	Pos         lexer.Position
	Modifiers   []string     `@( "public" | "private" | "protected" | "readonly" | "static" )*`
	Constructor *Constructor `( @@`
	Method      *Method      `| @@`
	Property    *Property    `| @@ ) ";"?`
}

type Constructor struct {
	Pos    lexer.Position
	Params []*Param `"constructor" "(" ( @@ ( "," @@ )* ","? )? ")"`
	Body   *Block   `@@`
}

type Method struct {
	Pos    lexer.Position
	Name   string   `@Ident "("`
	Params []*Param `( @@ ( "," @@ )* ","? )? ")"`
	Return *TypeRef `( ":" @@ )?`
	Body   *Block   `@@`
}

type Property struct {
	Pos         lexer.Position
	Name        string       `@Ident ( "?" | "!" )?`
	Type        *TypeRef     `( ":" @@ )?`
	Initializer *Initializer `( "=" @@ )?`
}

// Initializer is a property value: either an arrow function or a plain expression.
type Initializer struct {
	Pos   lexer.Position
	Arrow *Arrow      `  @@`
	Value *Expression `| @@`
}

type Arrow struct {
	Pos    lexer.Position
	Params []*Param    `"(" ( @@ ( "," @@ )* ","? )? ")"`
	Return *TypeRef    `( ":" @@ )?`
	Body   *Block      `"=>" ( @@`
	Value  *Expression `     | @@ )`
}

type Param struct {
	Pos  lexer.Position
	Name string   `@Ident "?"?`
	Type *TypeRef `":" @@`
}

// TypeRef is a type annotation such as `number`, `Record<address, number>` or `Point[]`.
type TypeRef struct {
	Pos      lexer.Position
	Name     string     `@Ident`
	Generics []*TypeRef `( "<" @@ ( "," @@ )* ">" )?`
	Array    []string   `( @"[" "]" )*`
}

type Block struct {
	Pos        lexer.Position
	Statements []*Statement `"{" @@* "}"`
}

type Statement struct {
	Pos         lexer.Position
	Block       *Block         `  @@`
	Declaration *Declaration   `| @@`
	If          *If            `| @@`
	Return      *Return        `| @@`
	Throw       *Throw         `| @@`
	Expression  *ExprStatement `| @@`
	Empty       bool           `| @";"`
}

type Declaration struct {
	Pos   lexer.Position
	Kind  string      `@( "let" | "const" | "var" )`
	Name  string      `@Ident`
	Type  *TypeRef    `( ":" @@ )?`
	Value *Expression `( "=" @@ )? ";"`
}

type If struct {
	Pos       lexer.Position
	Condition *Expression `"if" "(" @@ ")"`
	Then      *Statement  `@@`
	Else      *Statement  `( "else" @@ )?`
}

type Return struct {
	Pos   lexer.Position
	Value *Expression `"return" @@? ";"`
}

type Throw struct {
	Pos   lexer.Position
	Value *Expression `"throw" @@ ";"`
}

// ExprStatement is an expression evaluated for effect, optionally assigned to a target.
type ExprStatement struct {
	Pos      lexer.Position
	Target   *Expression `@@`
	Operator string      `( @( "=" | "+=" | "-=" )`
	Value    *Expression `  @@ )? ";"`
}

type Expression struct {
	Pos       lexer.Position
	Condition *Binary     `@@`
	Then      *Expression `( "?" @@`
	Else      *Expression `  ":" @@ )?`
}

// Binary is a flat operator chain; precedence is resolved during lowering.
type Binary struct {
	Pos  lexer.Position
	Left *Unary   `@@`
	Ops  []*BinOp `@@*`
}

type BinOp struct {
	Pos      lexer.Position
	Operator string `@( "||" | "&&" | "===" | "!==" | "==" | "!=" | "<=" | ">=" | "<" | ">" | "**" | "+" | "-" | "*" | "/" | "%" )`
	Right    *Unary `@@`
}

type Unary struct {
	Pos       lexer.Position
	Operators []string `@( "!" | "-" )*`
	Value     *Postfix `@@`
}

type Postfix struct {
	Pos     lexer.Position
	Primary *Primary  `@@`
	Suffix  []*Suffix `@@*`
}

type Suffix struct {
	Pos    lexer.Position
	Member string      `  "." @Ident`
	Index  *Expression `| "[" @@ "]"`
	Call   *Arguments  `| @@`
}

type Arguments struct {
	Pos  lexer.Position
	Args []*Expression `"(" ( @@ ( "," @@ )* ","? )? ")"`
}

type Primary struct {
	Pos    lexer.Position
	New    *New           `  @@`
	Object *ObjectLiteral `| @@`
	Number *string        `| @Number`
	Text   *string        `| @String`
	Bool   *string        `| @( "true" | "false" )`
	This   bool           `| @"this"`
	Ident  *string        `| @Ident`
	Parens *Expression    `| "(" @@ ")"`
}

type New struct {
	Pos   lexer.Position
	Class string     `"new" @Ident`
	Args  *Arguments `@@`
}

type ObjectLiteral struct {
	Pos    lexer.Position
	Fields []*ObjectField `"{" ( @@ ( "," @@ )* ","? )? "}"`
}

// ObjectField is `key: value`, or the shorthand `key` meaning `key: key`.
type ObjectField struct {
	Pos   lexer.Position
	Key   string      `( @Ident | @String )`
	Value *Expression `( ":" @@ )?`
}
