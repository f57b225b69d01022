package service

import "net/url"

// CollectionsRoute is the console route listing collections
const CollectionsRoute = "/collections"

// JobsRoute returns the console route listing the jobs of a collection
func JobsRoute(collectionID string) string {
	return CollectionsRoute + "/" + url.PathEscape(collectionID) + "/jobs"
}

// VariablesRoute returns the console route listing the variables of a collection
func VariablesRoute(collectionID string) string {
	return CollectionsRoute + "/" + url.PathEscape(collectionID) + "/variables"
}
