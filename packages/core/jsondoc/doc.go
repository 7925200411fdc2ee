// Package jsondoc walks JSON documents as explicit object, array, string and
// scalar variants on top of gjson.
//
// Object members are visited in document order. Duplicate keys collapse to
// their last value, kept at the position of the first occurrence, which is
// how JSON.parse treats them.
package jsondoc
