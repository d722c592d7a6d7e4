// Package basic implements a line oriented interpreter for a minimal
// BASIC dialect.
//
// A program is a sequence of lines, each starting with a label token
// followed by a single command:
//
//	10 LET N=3
//	20 FOR I TO N
//	30 PRINT I
//	40 NEXT I
//	50 GOSUB 100
//	60 END
//	100 PRINT "DONE"
//	110 RETURN
//
// Identifiers ending in '$' are text variables, all others are numeric.
// Expressions are single operands; conditions are a single comparison of
// the form "left op right" with op one of >, <, = or ==.
package basic
