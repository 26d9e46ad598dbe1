package pbls

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelativeName(t *testing.T) {
	assert.Equal(t, "Bar.Baz", RelativeName("Foo", "Foo.Bar.Baz"))
	assert.Equal(t, "Bar", RelativeName("Foo.Bar.Baz", "Foo.Bar"))
	assert.Equal(t, "Biz.Bar.Baz", RelativeName("Foo.Bar.Baz", "Biz.Bar.Baz"))
	assert.Equal(t, "Baz", RelativeName("Foo.Bar.Baz", "Foo.Bar.Baz"))
}

func TestPossibleQualifiers(t *testing.T) {
	assert.Equal(t, []string{"baz", "bar.baz", "foo.bar.baz"}, PossibleQualifiers("foo.bar.baz", "foo.bar"))
	assert.Equal(t, []string{"", "foo"}, PossibleQualifiers("foo", "foo"))
}

func TestPossibleQualifiersUnrelatedPackages(t *testing.T) {
	got := PossibleQualifiers("acme.v1", "other.v1")
	assert.Equal(t, []string{"acme.v1"}, got)
}

func TestPossibleQualifiersNoDestinationPackage(t *testing.T) {
	got := PossibleQualifiers("acme.v1", "")
	assert.Equal(t, []string{"acme.v1"}, got)
}
