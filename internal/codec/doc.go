// Package codec reads and writes the textual term format.
//
// Grammar:
//
//	term  ::= '"' chars '"' args? | name args? | args | '[' terms? ']' | int
//	args  ::= '(' terms? ')'
//	terms ::= term (',' term)*
//	name  ::= [A-Za-z][A-Za-z0-9_\-+*$]*
//	int   ::= '-'? [0-9]+
//
// Whitespace between tokens is layout. Quoted names accept the escapes
// \n, \r, \t and \<c> for a literal <c>. The printer emits the canonical
// form: no layout, quoted names escaped, parentheses whenever the arity is
// positive or the symbol is the unquoted empty name.
package codec
