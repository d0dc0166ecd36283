package parser

import "github.com/silverfish-labs/flint/token"

// This file implements the grammar of spec.md §4.1, precedence low to high:
//
//	Expression     := LSExpression '=' Expression | RSExpression
//	RSExpression   := Comparison ( ('&&'|'||') Comparison )*
//	Comparison     := Additive ( ('<='|'>='|'<'|'>'|'=='|'!=') Additive )*
//	Additive       := Term ( ('+'|'-') Term )*
//	Term           := Factor ( ('*'|'/'|'%') Factor )*
//	Factor         := space ( BlockValue | Unary ) space
//	Unary          := ('++'|'--'|'-'|'!') space ( BlockValue | Unary )
//	BlockValue     := Primary ( MemberRef | FunctionArgs | Index )*
//	Primary        := ExplicitConversion | Number | String | Bool | Constructor | Reference | '(' Expression ')'
//	ExplicitConversion := '(' Identifier ')' Factor
//	Constructor    := 'new' Identifier FunctionArgs
//	FunctionArgs   := '(' ( Expression (',' Expression)* )? ')'
//	Index          := '[' ( Expression (',' Expression)* )? ']'
//	MemberRef      := '.' Identifier
//	LSExpression   := BlockValue
//
// Each rule is a method returning whether it matched; on success it has
// appended exactly one node (or zero, for an elided Block) to whatever
// token was on top of the parser's stack when it was called.

func (p *Parser) expression() bool {
	return p.or(p.assignment, p.rsExpression)
}

func (p *Parser) assignment() bool {
	return p.block(token.Block, nil, func() bool {
		return p.and(
			p.space,
			p.lsExpression,
			p.space,
			func() bool { return p.match("=", token.Setter) },
			p.expression,
		)
	})
}

func (p *Parser) lsExpression() bool {
	// Accepts any BlockValue syntactically — "1 = 2" must still parse so
	// the compiler's isPlace check (not the grammar) is what rejects a
	// non-place left side with InvalidAssignmentTarget. Gating this on
	// p.reference would make a non-identifier LHS a parse failure
	// instead, surfacing UnexpectedToken where spec.md's negative
	// battery requires InvalidAssignmentTarget.
	return p.blockValue()
}

func (p *Parser) rsExpression() bool {
	return p.block(token.Block, nil, func() bool {
		return p.and(p.comparison, func() bool {
			return p.zeroOrMore(func() bool {
				return p.and(p.boolOp, p.comparison)
			})
		})
	})
}

func (p *Parser) boolOp() bool {
	return p.or(
		func() bool { return p.match("&&", token.Binary) },
		func() bool { return p.match("||", token.Binary) },
	)
}

func (p *Parser) comparison() bool {
	return p.block(token.Block, nil, func() bool {
		return p.and(p.additive, func() bool {
			return p.zeroOrMore(func() bool {
				return p.and(p.comparisonOp, p.additive)
			})
		})
	})
}

func (p *Parser) comparisonOp() bool {
	// Longer lexemes first: "<=" before "<", ">=" before ">", "==" is
	// tried here (not in Expression, which uses Setter's bare "=" and
	// relies on backtracking when it meets a second "=").
	return p.or(
		func() bool { return p.match("<=", token.Binary) },
		func() bool { return p.match(">=", token.Binary) },
		func() bool { return p.match("==", token.Binary) },
		func() bool { return p.match("!=", token.Binary) },
		func() bool { return p.match("<", token.Binary) },
		func() bool { return p.match(">", token.Binary) },
	)
}

func (p *Parser) additive() bool {
	return p.block(token.Block, nil, func() bool {
		return p.and(p.term, func() bool {
			return p.zeroOrMore(func() bool {
				return p.and(p.additiveOp, p.term)
			})
		})
	})
}

func (p *Parser) additiveOp() bool {
	return p.or(
		func() bool { return p.match("+", token.Binary) },
		func() bool { return p.match("-", token.Binary) },
	)
}

func (p *Parser) term() bool {
	return p.block(token.Block, nil, func() bool {
		return p.and(p.factor, func() bool {
			return p.zeroOrMore(func() bool {
				return p.and(p.termOp, p.factor)
			})
		})
	})
}

func (p *Parser) termOp() bool {
	return p.or(
		func() bool { return p.match("*", token.Binary) },
		func() bool { return p.match("/", token.Binary) },
		func() bool { return p.match("%", token.Binary) },
	)
}

func (p *Parser) factor() bool {
	return p.block(token.Block, nil, func() bool {
		return p.and(p.space, func() bool { return p.or(p.blockValue, p.unary) }, p.space)
	})
}

func (p *Parser) unary() bool {
	return p.block(token.Block, nil, func() bool {
		return p.and(p.unaryOp, p.space, func() bool { return p.or(p.blockValue, p.unary) })
	})
}

func (p *Parser) unaryOp() bool {
	// "++"/"--" tried before "-"/"!": "--" shares its lead character with
	// "-", so the longer lexeme must be tried first.
	return p.or(
		func() bool { return p.match("++", token.Increment) },
		func() bool { return p.match("--", token.Increment) },
		func() bool { return p.match("-", token.Unary) },
		func() bool { return p.match("!", token.Unary) },
	)
}

func (p *Parser) blockValue() bool {
	return p.block(token.Block, nil, func() bool {
		return p.and(p.primary, func() bool {
			return p.zeroOrMore(func() bool {
				return p.or(p.memberRef, p.function, p.index)
			})
		})
	})
}

func (p *Parser) primary() bool {
	return p.block(token.Block, nil, func() bool {
		return p.or(
			p.explicitConversion,
			p.numberLiteral,
			p.stringLiteral,
			p.boolLiteral,
			p.constructor,
			p.reference,
			p.parenGroup,
		)
	})
}

func (p *Parser) parenGroup() bool {
	return p.and(
		func() bool { return p.match("(", token.Skip) },
		p.expression,
		func() bool { return p.match(")", token.Skip) },
	)
}

func (p *Parser) explicitConversion() bool {
	var name string
	return p.block(token.ExplicitConversion, func(string) interface{} { return name }, func() bool {
		return p.and(
			func() bool { return p.match("(", token.Skip) },
			func() bool {
				start := p.pos
				if !p.scanIdentifier() {
					return false
				}
				name = p.src[start:p.pos]
				return true
			},
			func() bool { return p.match(")", token.Skip) },
			p.factor,
		)
	})
}

func (p *Parser) numberLiteral() bool {
	return p.block(token.Literal, func(text string) interface{} {
		if containsDot(text) {
			return parseFloatLiteral(text)
		}
		return parseIntLiteral(text)
	}, p.scanNumber)
}

func containsDot(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return true
		}
	}
	return false
}

func (p *Parser) stringLiteral() bool {
	return p.block(token.Literal, parseStringLiteralValue, p.scanString)
}

func (p *Parser) boolLiteral() bool {
	return p.block(token.Literal, func(text string) interface{} { return text == "true" }, func() bool {
		return p.or(
			func() bool { return p.scanKeyword("true") },
			func() bool { return p.scanKeyword("false") },
		)
	})
}

func (p *Parser) constructor() bool {
	var name string
	return p.block(token.Constructor, func(string) interface{} { return name }, func() bool {
		return p.and(
			func() bool { return p.scanKeyword("new") },
			p.space,
			func() bool {
				start := p.pos
				if !p.scanIdentifier() {
					return false
				}
				name = p.src[start:p.pos]
				return true
			},
			p.argList,
		)
	})
}

func (p *Parser) reference() bool {
	return p.block(token.Reference, func(text string) interface{} { return text }, p.scanIdentifier)
}

func (p *Parser) memberRef() bool {
	return p.block(token.MemberRef, func(text string) interface{} { return text[1:] }, func() bool {
		return p.and(func() bool { return p.match(".", token.Skip) }, p.scanIdentifier)
	})
}

func (p *Parser) function() bool {
	return p.block(token.Function, nil, p.argList)
}

func (p *Parser) index() bool {
	return p.block(token.Index, nil, p.idxList)
}

// argList parses FunctionArgs := '(' ( Expression (',' Expression)* )? ')',
// appending each argument expression as a child of whatever block is
// currently on top of the stack (the Constructor or Function node being
// built around it).
func (p *Parser) argList() bool {
	return p.delimitedExprList("(", ")")()
}

// idxList parses Index := '[' ( Expression (',' Expression)* )? ']'.
func (p *Parser) idxList() bool {
	return p.delimitedExprList("[", "]")()
}

func (p *Parser) delimitedExprList(open, close string) func() bool {
	return func() bool {
		return p.and(
			func() bool { return p.match(open, token.Skip) },
			p.space,
			p.optionalExprCommaList,
			p.space,
			func() bool { return p.match(close, token.Skip) },
		)
	}
}

// optionalExprCommaList implements the "(Expression (',' Expression)*)?"
// optional group: it always succeeds, consuming nothing if no Expression
// is present.
func (p *Parser) optionalExprCommaList() bool {
	if !p.expression() {
		return true
	}
	return p.zeroOrMore(func() bool {
		return p.and(
			p.space,
			func() bool { return p.match(",", token.Skip) },
			p.space,
			p.expression,
		)
	})
}
