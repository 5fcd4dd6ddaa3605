package krb_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kryon-ui/kryon-runtime/krb"
	"github.com/kryon-ui/kryon-runtime/internal/krbfixture"
)

// S1 — single button that logs on click (spec.md §8 S1), checked here at
// the parse layer only: one App root, one Button child with a click event.
func TestParseDocument_S1SingleButton(t *testing.T) {
	doc := &krbfixture.Document{HasApp: true}
	titleIdx := doc.AddString("X")
	btnIDIdx := doc.AddString("btn")
	textIdx := doc.AddString("Hi")
	handlerIdx := doc.AddString("h")

	doc.Roots = []krbfixture.Element{{
		Type:   krb.ElemTypeApp,
		Width:  800,
		Height: 600,
		Properties: []krbfixture.Prop{
			{ID: krb.PropIDWindowTitle, ValueType: krb.ValTypeString, Value: krbfixture.StringValue(titleIdx)},
		},
		Children: []krbfixture.Element{{
			Type: krb.ElemTypeButton,
			ID:   btnIDIdx,
			Properties: []krbfixture.Prop{
				{ID: krb.PropIDTextContent, ValueType: krb.ValTypeString, Value: krbfixture.StringValue(textIdx)},
			},
			Events: []krbfixture.Event{{Type: krb.EventTypeClick, CallbackID: handlerIdx}},
		}},
	}}

	data := doc.Build()
	parsed, err := krb.ParseDocument(data)
	require.NoError(t, err)
	require.Len(t, parsed.Elements, 2)
	require.Equal(t, krb.ElemTypeApp, parsed.Elements[0].Type)
	require.Equal(t, krb.ElemTypeButton, parsed.Elements[1].Type)
	require.Equal(t, uint8(1), parsed.Elements[1].EventCount)
	require.Equal(t, krb.EventTypeClick, parsed.Events[1][0].EventType)
	require.Equal(t, "h", parsed.Strings[parsed.Events[1][0].CallbackID])
	require.Equal(t, uint8(1), parsed.Elements[0].ChildCount)
}

// S2 — style overrides defaults, direct overrides style: checked purely
// at the parse layer (resolution order itself is runtime's job).
func TestParseDocument_S2StyleAndDirectPropertiesPreserved(t *testing.T) {
	doc := &krbfixture.Document{HasApp: true}
	doc.Styles = []krbfixture.StyleDef{{
		ID:        1,
		NameIndex: doc.AddString("boxStyle"),
		Properties: []krbfixture.Prop{
			{ID: krb.PropIDBgColor, ValueType: krb.ValTypeColor, Value: krbfixture.ColorValue(10, 20, 30, 255)},
		},
	}}
	doc.Roots = []krbfixture.Element{{
		Type: krb.ElemTypeApp,
		Children: []krbfixture.Element{{
			Type:    krb.ElemTypeContainer,
			StyleID: 1,
			Properties: []krbfixture.Prop{
				{ID: krb.PropIDBgColor, ValueType: krb.ValTypeColor, Value: krbfixture.ColorValue(40, 50, 60, 255)},
			},
		}},
	}}

	data := doc.Build()
	parsed, err := krb.ParseDocument(data)
	require.NoError(t, err)
	require.Len(t, parsed.Styles, 1)
	require.Equal(t, uint8(1), parsed.Styles[0].ID)
	require.Equal(t, krbfixture.ColorValue(10, 20, 30, 255), parsed.Styles[0].Properties[0].Value)
	require.Equal(t, krbfixture.ColorValue(40, 50, 60, 255), parsed.Properties[1][0].Value)
}

// S3 — component expansion groundwork: a TabBar definition with a
// Container root + 3 Button children, and a placeholder element
// referencing it by _componentName.
func TestParseDocument_S3ComponentDefinitionTemplateParsed(t *testing.T) {
	doc := &krbfixture.Document{HasApp: true}
	compNameIdx := doc.AddString("TabBar")
	doc.ComponentDefs = []krbfixture.ComponentDef{{
		NameIndex: compNameIdx,
		Template: krbfixture.Element{
			Type: krb.ElemTypeContainer,
			Children: []krbfixture.Element{
				{Type: krb.ElemTypeButton},
				{Type: krb.ElemTypeButton},
				{Type: krb.ElemTypeButton},
			},
		},
	}}
	componentNameKey := doc.AddString("_componentName")
	doc.Roots = []krbfixture.Element{{
		Type: krb.ElemTypeApp,
		Children: []krbfixture.Element{{
			Type: krb.ElemTypeContainer,
			CustomProperties: []krbfixture.CustomProp{{
				KeyIndex: componentNameKey, ValueType: krb.ValTypeString, Value: krbfixture.StringValue(compNameIdx),
			}},
		}},
	}}

	data := doc.Build()
	parsed, err := krb.ParseDocument(data)
	require.NoError(t, err)
	require.Len(t, parsed.ComponentDefinitions, 1)
	require.Len(t, parsed.ComponentDefinitions[0].TemplateElements, 4)
	require.Equal(t, krb.ElemTypeContainer, parsed.ComponentDefinitions[0].TemplateElements[0].Type)
	require.Equal(t, uint8(3), parsed.ComponentDefinitions[0].TemplateElements[0].ChildCount)
	for _, child := range parsed.ComponentDefinitions[0].TemplateElements[1:] {
		require.Equal(t, krb.ElemTypeButton, child.Type)
	}
}

// S6 — malformed magic fails with BadMagic and no partial document.
func TestParseDocument_S6BadMagic(t *testing.T) {
	data := []byte("XXXX\x00\x04\x00\x00" + string(make([]byte, 40)))
	parsed, err := krb.ParseDocument(data)
	require.Nil(t, parsed)
	var perr *krb.ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, krb.ErrBadMagic, perr.Kind)
}

func TestParseDocument_EmptyDocumentHasNoElements(t *testing.T) {
	doc := &krbfixture.Document{}
	data := doc.Build()
	parsed, err := krb.ParseDocument(data)
	require.NoError(t, err)
	require.Empty(t, parsed.Elements)
}

func TestParseDocument_MissingAppFailsWhenFlagSetButFirstElementIsNotApp(t *testing.T) {
	doc := &krbfixture.Document{HasApp: true}
	doc.Roots = []krbfixture.Element{{Type: krb.ElemTypeContainer}}
	data := doc.Build()
	parsed, err := krb.ParseDocument(data)
	require.Nil(t, parsed)
	var perr *krb.ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, krb.ErrMissingApp, perr.Kind)
}

func TestParseDocument_StateProertySetsRequireScriptsRevision(t *testing.T) {
	doc := &krbfixture.Document{HasApp: true, UseScripts: true}
	doc.Roots = []krbfixture.Element{{
		Type: krb.ElemTypeApp,
		Children: []krbfixture.Element{{
			Type: krb.ElemTypeButton,
			StateProperties: []krbfixture.StateProps{{
				StateFlags: krb.StateFlagHover,
				Props: []krbfixture.Prop{
					{ID: krb.PropIDBgColor, ValueType: krb.ValTypeColor, Value: krbfixture.ColorValue(1, 2, 3, 255)},
				},
			}},
		}},
	}}
	data := doc.Build()
	parsed, err := krb.ParseDocument(data)
	require.NoError(t, err)
	require.True(t, parsed.Header.HasScripts)
	require.Len(t, parsed.StateProperties[1], 1)
	require.Equal(t, krb.StateFlagHover, parsed.StateProperties[1][0].StateFlags)
}
