// Package termfmt is printf for terms.
//
// A format string is compiled into directives. Besides the usual numeric
// and string verbs, which are handed to fmt with their flags and width,
// it understands:
//
//	%t     a term in canonical text
//	%<s>l  the elements of a list separated by <s>, e.g. "%, l"
//	%y %a  a function symbol
//	%n     a one-node summary: 7, f(...(2)), [...(3)]
//	%h     the hex SHA-256 checksum of a term
//	%%     a percent sign
package termfmt
