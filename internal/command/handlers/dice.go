// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Relaybot Contributors

package handlers

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/samber/oops"
)

const (
	// maxDiceTerms bounds the number of terms in one expression.
	maxDiceTerms = 10
	// maxTermValue bounds every count, side and modifier literal.
	maxTermValue = 1_000_000
)

var diceLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Dice", Pattern: `\d*[dD]\d+`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "Op", Pattern: `[-+]`},
	{Name: "whitespace", Pattern: `\s+`},
})

// diceExpr is a sum of dice and flat terms.
//
// Grammar: term { ("+" | "-") term }
type diceExpr struct {
	Head *diceTerm   `parser:"@@"`
	Tail []*diceTail `parser:"@@*"`
}

type diceTail struct {
	Op   string    `parser:"@Op"`
	Term *diceTerm `parser:"@@"`
}

// diceTerm is either NdM (N optional) or a flat integer.
type diceTerm struct {
	Dice string `parser:"  @Dice"`
	Flat string `parser:"| @Int"`
}

var diceParser = participle.MustBuild[diceExpr](participle.Lexer(diceLexer))

// DiceTerm is one evaluated term of a dice expression.
type DiceTerm struct {
	Negative bool
	Dice     bool // false for a flat modifier
	Count    int
	Sides    int
	Flat     int
}

// String renders the term without its sign.
func (t DiceTerm) String() string {
	if !t.Dice {
		return strconv.Itoa(t.Flat)
	}
	return fmt.Sprintf("%dd%d", t.Count, t.Sides)
}

// DiceExpr is a parsed dice expression such as "2d6+3".
type DiceExpr []DiceTerm

// String renders the expression in canonical form.
func (e DiceExpr) String() string {
	var b strings.Builder
	for i, t := range e {
		switch {
		case t.Negative:
			b.WriteByte('-')
		case i > 0:
			b.WriteByte('+')
		}
		b.WriteString(t.String())
	}
	return b.String()
}

// DiceCount returns the total number of dice rolled by the expression,
// saturating at math.MaxInt.
func (e DiceExpr) DiceCount() int {
	n := 0
	for _, t := range e {
		if t.Count > math.MaxInt-n {
			return math.MaxInt
		}
		n += t.Count
	}
	return n
}

// ParseDice parses a dice expression. The result contains at least one dice
// term; counts and sides are not range checked.
func ParseDice(text string) (DiceExpr, error) {
	ast, err := diceParser.ParseString("", text)
	if err != nil {
		return nil, oops.Wrapf(err, "parsing dice expression")
	}

	terms := make([]*diceTerm, 0, 1+len(ast.Tail))
	signs := make([]bool, 0, 1+len(ast.Tail))
	terms = append(terms, ast.Head)
	signs = append(signs, false)
	for _, t := range ast.Tail {
		terms = append(terms, t.Term)
		signs = append(signs, t.Op == "-")
	}
	if len(terms) > maxDiceTerms {
		return nil, oops.With("terms", len(terms)).Errorf("dice expression has more than %d terms", maxDiceTerms)
	}

	expr := make(DiceExpr, 0, len(terms))
	hasDice := false
	for i, t := range terms {
		term, err := evalTerm(t)
		if err != nil {
			return nil, err
		}
		term.Negative = signs[i]
		hasDice = hasDice || term.Dice
		expr = append(expr, term)
	}
	if !hasDice {
		return nil, oops.Errorf("dice expression %q rolls no dice", text)
	}
	return expr, nil
}

func evalTerm(t *diceTerm) (DiceTerm, error) {
	if t.Dice == "" {
		flat, err := parseLiteral("modifier", t.Flat)
		if err != nil {
			return DiceTerm{}, err
		}
		return DiceTerm{Flat: flat}, nil
	}

	countText, sidesText, _ := strings.Cut(strings.ToLower(t.Dice), "d")
	count := 1
	if countText != "" {
		n, err := parseLiteral("dice count", countText)
		if err != nil {
			return DiceTerm{}, err
		}
		count = n
	}
	sides, err := parseLiteral("dice sides", sidesText)
	if err != nil {
		return DiceTerm{}, err
	}
	return DiceTerm{Dice: true, Count: count, Sides: sides}, nil
}

func parseLiteral(what, text string) (int, error) {
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, oops.Wrapf(err, "parsing %s %q", what, text)
	}
	if n > maxTermValue {
		return 0, oops.With("value", n).Errorf("%s %d exceeds %d", what, n, maxTermValue)
	}
	return n, nil
}
