package pbls

import "strings"

// RelativeName shortens the dotted symbol name relative to base. Let P be
// the longest dotted prefix on which base and name agree component-wise. If
// P == name (name is a prefix of base), the last component of name is
// returned. Otherwise name has the prefix "P." stripped; if no prefix was
// shared, name is returned unchanged.
func RelativeName(base, name string) string {
	baseParts := strings.Split(base, ".")
	nameParts := strings.Split(name, ".")

	i := 0
	for i < len(baseParts) && i < len(nameParts) && baseParts[i] == nameParts[i] {
		i++
	}

	prefix := strings.Join(nameParts[:i], ".")
	if prefix == name {
		return nameParts[len(nameParts)-1]
	}
	if i == 0 {
		return name
	}
	return strings.Join(nameParts[i:], ".")
}

// parentPackage drops the last dotted component of pkg, returning "" if pkg
// has none.
func parentPackage(pkg string) string {
	idx := strings.LastIndex(pkg, ".")
	if idx < 0 {
		return ""
	}
	return pkg[:idx]
}

// PossibleQualifiers enumerates every valid way toPkg may refer to a symbol
// defined in fromPkg, in ascending order of qualification. The last element
// is always fromPkg itself, unqualified.
func PossibleQualifiers(fromPkg, toPkg string) []string {
	if toPkg == "" {
		return []string{fromPkg}
	}
	var out []string
	if fromPkg == toPkg {
		out = append(out, "")
	} else if strings.HasPrefix(fromPkg, toPkg+".") {
		out = append(out, fromPkg[len(toPkg)+1:])
	}
	return append(out, PossibleQualifiers(fromPkg, parentPackage(toPkg))...)
}
