package sim

import (
	"strconv"
	"strings"
)

// NameMustBeValid panics if the name does not follow the naming convention.
// Names are hierarchical, with elements separated by dots. Each element must
// be capitalized CamelCase, and elements in a series use square-bracket
// notation, as in "Engine.SlotArray[3]".
func NameMustBeValid(name string) {
	defer func() {
		if r := recover(); r != nil {
			panic("Name " + name + " is not valid: " + r.(string))
		}
	}()

	for _, token := range strings.Split(name, ".") {
		nameTokenMustBeValid(token)
	}
}

func nameTokenMustBeValid(token string) {
	bracketMustMatch(token)

	elemName := strings.Split(token, "[")[0]
	if elemName == "" {
		panic("Name element must not be empty")
	}

	for _, c := range []string{"_", "\"", "'", "-"} {
		if strings.Contains(elemName, c) {
			panic("Name element must not contain " + c)
		}
	}

	if elemName[0] < 'A' || elemName[0] > 'Z' {
		panic("Name element must start with a capital letter")
	}
}

func bracketMustMatch(name string) {
	openBracketCount := 0
	for _, c := range name {
		if c == '[' {
			openBracketCount++
		} else if c == ']' {
			openBracketCount--
			if openBracketCount < 0 {
				panic("Name bracket must match")
			}
		}
	}

	if openBracketCount != 0 {
		panic("Name bracket must match")
	}
}

// BuildName builds a name from a parent name and an element name.
func BuildName(parentName, elementName string) string {
	if parentName == "" {
		return elementName
	}

	return parentName + "." + elementName
}

// BuildNameWithIndex builds a name from a parent name, an element name, and
// an index.
func BuildNameWithIndex(parentName, elementName string, index int) string {
	return BuildName(parentName, elementName+"["+strconv.Itoa(index)+"]")
}
