/*
Package recognizer produces the place-name mentions the engine links.

Recognition is pluggable through the Provider enumeration: a remote HTTP
NER service, the in-process go-gline-rs span model, the in-process
go-rust-bert NER model, or a canned mock. All providers answer the same
Recognize call and return types.Mention values with character spans.

The in-process models emit surface forms without positions; spans are
recovered by progressive substring search over the source text. BIO-style
prefixes are stripped from labels, and the LocationOnly option drops
entities outside the location tag family.
*/
package recognizer
