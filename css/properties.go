package css

import (
	"maps"
	"slices"
)

// valueType is the coarse grammar class of a property, used to reject values
// of the wrong kind.
type valueType uint8

const (
	typeAny valueType = iota
	typeLength
	typeNumber
	typeColor
)

type propertyInfo struct {
	inherited   bool
	initial     string
	nonNegative bool
	kind        valueType
	keywords    []string // keywords accepted besides the global ones
}

var (
	lengthAuto   = []string{"auto"}
	sizeKeywords = []string{"auto", "min-content", "max-content", "fit-content"}
	borderWidths = []string{"thin", "medium", "thick"}
	fontSizes    = []string{"xx-small", "x-small", "small", "medium", "large", "x-large", "xx-large", "xxx-large", "smaller", "larger", "math"}
	normalOnly   = []string{"normal"}
)

// properties is the fixed table of known longhands. Shorthands live in the
// expansion table, custom properties are never listed here.
var properties = map[string]propertyInfo{
	// inherited
	"color":               {inherited: true, initial: "black", kind: typeColor},
	"font-family":         {inherited: true, initial: "serif"},
	"font-size":           {inherited: true, initial: "medium", nonNegative: true, kind: typeLength, keywords: fontSizes},
	"font-style":          {inherited: true, initial: "normal"},
	"font-variant":        {inherited: true, initial: "normal"},
	"font-weight":         {inherited: true, initial: "normal", kind: typeNumber, keywords: []string{"normal", "bold", "bolder", "lighter"}},
	"font-stretch":        {inherited: true, initial: "normal"},
	"line-height":         {inherited: true, initial: "normal", nonNegative: true, kind: typeLength, keywords: normalOnly},
	"letter-spacing":      {inherited: true, initial: "normal", kind: typeLength, keywords: normalOnly},
	"word-spacing":        {inherited: true, initial: "normal", kind: typeLength, keywords: normalOnly},
	"text-align":          {inherited: true, initial: "start"},
	"text-indent":         {inherited: true, initial: "0", kind: typeLength},
	"text-transform":      {inherited: true, initial: "none"},
	"text-shadow":         {inherited: true, initial: "none"},
	"white-space":         {inherited: true, initial: "normal"},
	"word-break":          {inherited: true, initial: "normal"},
	"overflow-wrap":       {inherited: true, initial: "normal"},
	"hyphens":             {inherited: true, initial: "manual"},
	"tab-size":            {inherited: true, initial: "8", nonNegative: true, kind: typeLength},
	"visibility":          {inherited: true, initial: "visible"},
	"cursor":              {inherited: true, initial: "auto"},
	"direction":           {inherited: true, initial: "ltr"},
	"writing-mode":        {inherited: true, initial: "horizontal-tb"},
	"list-style-type":     {inherited: true, initial: "disc"},
	"list-style-position": {inherited: true, initial: "outside"},
	"list-style-image":    {inherited: true, initial: "none"},
	"quotes":              {inherited: true, initial: "auto"},
	"border-collapse":     {inherited: true, initial: "separate"},
	"border-spacing":      {inherited: true, initial: "0", nonNegative: true},
	"caption-side":        {inherited: true, initial: "top"},
	"empty-cells":         {inherited: true, initial: "show"},
	"pointer-events":      {inherited: true, initial: "auto"},
	"color-scheme":        {inherited: true, initial: "normal"},
	"caret-color":         {inherited: true, initial: "auto", kind: typeColor, keywords: lengthAuto},
	"orphans":             {inherited: true, initial: "2", kind: typeNumber},
	"widows":              {inherited: true, initial: "2", kind: typeNumber},

	// box
	"display":     {initial: "inline"},
	"position":    {initial: "static"},
	"float":       {initial: "none"},
	"clear":       {initial: "none"},
	"box-sizing":  {initial: "content-box"},
	"top":         {initial: "auto", kind: typeLength, keywords: lengthAuto},
	"right":       {initial: "auto", kind: typeLength, keywords: lengthAuto},
	"bottom":      {initial: "auto", kind: typeLength, keywords: lengthAuto},
	"left":        {initial: "auto", kind: typeLength, keywords: lengthAuto},
	"z-index":     {initial: "auto", kind: typeNumber, keywords: lengthAuto},
	"width":       {initial: "auto", nonNegative: true, kind: typeLength, keywords: sizeKeywords},
	"height":      {initial: "auto", nonNegative: true, kind: typeLength, keywords: sizeKeywords},
	"min-width":   {initial: "0", nonNegative: true, kind: typeLength, keywords: sizeKeywords},
	"min-height":  {initial: "0", nonNegative: true, kind: typeLength, keywords: sizeKeywords},
	"max-width":   {initial: "none", nonNegative: true, kind: typeLength, keywords: append([]string{"none"}, sizeKeywords...)},
	"max-height":  {initial: "none", nonNegative: true, kind: typeLength, keywords: append([]string{"none"}, sizeKeywords...)},
	"overflow-x":  {initial: "visible"},
	"overflow-y":  {initial: "visible"},
	"contain":     {initial: "none"},
	"isolation":   {initial: "auto"},

	"aspect-ratio":   {initial: "auto"},
	"vertical-align": {initial: "baseline"},

	"margin-top":     {initial: "0", kind: typeLength, keywords: lengthAuto},
	"margin-right":   {initial: "0", kind: typeLength, keywords: lengthAuto},
	"margin-bottom":  {initial: "0", kind: typeLength, keywords: lengthAuto},
	"margin-left":    {initial: "0", kind: typeLength, keywords: lengthAuto},
	"padding-top":    {initial: "0", nonNegative: true, kind: typeLength},
	"padding-right":  {initial: "0", nonNegative: true, kind: typeLength},
	"padding-bottom": {initial: "0", nonNegative: true, kind: typeLength},
	"padding-left":   {initial: "0", nonNegative: true, kind: typeLength},

	"border-top-width":    {initial: "medium", nonNegative: true, kind: typeLength, keywords: borderWidths},
	"border-right-width":  {initial: "medium", nonNegative: true, kind: typeLength, keywords: borderWidths},
	"border-bottom-width": {initial: "medium", nonNegative: true, kind: typeLength, keywords: borderWidths},
	"border-left-width":   {initial: "medium", nonNegative: true, kind: typeLength, keywords: borderWidths},
	"border-top-style":    {initial: "none"},
	"border-right-style":  {initial: "none"},
	"border-bottom-style": {initial: "none"},
	"border-left-style":   {initial: "none"},
	"border-top-color":    {initial: "currentcolor", kind: typeColor},
	"border-right-color":  {initial: "currentcolor", kind: typeColor},
	"border-bottom-color": {initial: "currentcolor", kind: typeColor},
	"border-left-color":   {initial: "currentcolor", kind: typeColor},

	"border-top-left-radius":     {initial: "0", nonNegative: true},
	"border-top-right-radius":    {initial: "0", nonNegative: true},
	"border-bottom-right-radius": {initial: "0", nonNegative: true},
	"border-bottom-left-radius":  {initial: "0", nonNegative: true},

	"outline-width":  {initial: "medium", nonNegative: true, kind: typeLength, keywords: borderWidths},
	"outline-style":  {initial: "none"},
	"outline-color":  {initial: "currentcolor", kind: typeColor, keywords: []string{"invert"}},
	"outline-offset": {initial: "0", kind: typeLength},

	// paint
	"background-color":      {initial: "transparent", kind: typeColor},
	"background-image":      {initial: "none"},
	"background-repeat":     {initial: "repeat"},
	"background-position":   {initial: "0% 0%"},
	"background-size":       {initial: "auto"},
	"background-attachment": {initial: "scroll"},
	"opacity":               {initial: "1", kind: typeNumber},
	"transform":             {initial: "none"},
	"transform-origin":      {initial: "50% 50%"},
	"filter":                {initial: "none"},
	"backdrop-filter":       {initial: "none"},
	"box-shadow":            {initial: "none"},
	"mix-blend-mode":        {initial: "normal"},
	"perspective":           {initial: "none", nonNegative: true, kind: typeLength, keywords: []string{"none"}},
	"clip-path":             {initial: "none"},
	"will-change":           {initial: "auto"},

	"text-decoration-line":  {initial: "none"},
	"text-decoration-style": {initial: "solid"},
	"text-decoration-color": {initial: "currentcolor", kind: typeColor},

	// flex and grid inputs, stored for a layout collaborator
	"flex":            {initial: "0 1 auto"},
	"flex-direction":  {initial: "row"},
	"flex-wrap":       {initial: "nowrap"},
	"flex-grow":       {initial: "0", nonNegative: true, kind: typeNumber},
	"flex-shrink":     {initial: "1", nonNegative: true, kind: typeNumber},
	"flex-basis":      {initial: "auto", nonNegative: true, kind: typeLength, keywords: append([]string{"content"}, sizeKeywords...)},
	"order":           {initial: "0", kind: typeNumber},
	"justify-content": {initial: "normal"},
	"align-items":     {initial: "normal"},
	"align-self":      {initial: "auto"},
	"row-gap":         {initial: "normal", nonNegative: true, kind: typeLength, keywords: normalOnly},
	"column-gap":      {initial: "normal", nonNegative: true, kind: typeLength, keywords: normalOnly},

	"content":        {initial: "normal"},
	"table-layout":   {initial: "auto"},
	"animation-name": {initial: "none"},
	"transition":     {initial: "all 0s ease 0s"},
}

// globalKeywords are accepted by every property.
var globalKeywords = map[string]bool{
	"inherit": true, "initial": true, "unset": true, "revert": true, "revert-layer": true,
}

// KnownProperty reports whether p is a longhand in the property table.
func KnownProperty(p string) bool {
	_, ok := properties[p]
	return ok
}

// Inherited reports whether the property inherits by default. Custom
// properties always inherit.
func Inherited(p string) bool {
	if IsCustomProperty(p) {
		return true
	}
	return properties[p].inherited
}

// InitialValue returns the raw initial value of a property, "" for unknown
// properties.
func InitialValue(p string) string {
	return properties[p].initial
}

// NonNegative reports whether negative lengths are clamped to zero.
func NonNegative(p string) bool {
	return properties[p].nonNegative
}

// Properties returns the sorted names of all known longhands.
func Properties() []string {
	return slices.Sorted(maps.Keys(properties))
}

// IsCustomProperty reports whether p is an author defined --name property.
func IsCustomProperty(p string) bool {
	return len(p) > 2 && p[0] == '-' && p[1] == '-'
}

// fontSizeKeywords are absolute font sizes in px for a 16px medium.
var fontSizeKeywords = map[string]float64{
	"xx-small":  9,
	"x-small":   10,
	"small":     13,
	"medium":    16,
	"large":     18,
	"x-large":   24,
	"xx-large":  32,
	"xxx-large": 48,
}

// FontSizeKeyword returns px size of an absolute font-size keyword.
func FontSizeKeyword(kw string) (float64, bool) {
	px, ok := fontSizeKeywords[kw]
	return px, ok
}

// borderWidthKeywords are px widths of thin, medium and thick.
var borderWidthKeywords = map[string]float64{"thin": 1, "medium": 3, "thick": 5}

// BorderWidthKeyword returns px width of a border width keyword.
func BorderWidthKeyword(kw string) (float64, bool) {
	px, ok := borderWidthKeywords[kw]
	return px, ok
}
