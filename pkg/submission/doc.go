// Package submission encodes form values as multipart bodies and posts them
// to a form's submission URL, classifying the reply into a Result.
//
// Encoding rules: scalar values become one part; slices become one part per
// element under the same key; nil values are omitted rather than sent as
// "null". File values become file parts so upload fields survive the trip.
package submission
