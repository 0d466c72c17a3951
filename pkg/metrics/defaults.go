package metrics

// DefaultDefinitions returns the definitions of every built-in metric kind.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			MetricMeta: MetricMeta{
				MetricName:        KindNumberOfCommits,
				MetricDisplayName: "Number of Commits",
				MetricDescription: "Number of commits that touched the file, whatever the change kind.",
				MetricType:        TypeCount,
			},
			New: NewNumberOfOccurrencesInCommits,
		},
		{
			MetricMeta: MetricMeta{
				MetricName:        KindNumberOfAuthors,
				MetricDisplayName: "Number of Authors",
				MetricDescription: "Number of distinct commit authors that touched the file.",
				MetricType:        TypeDistinct,
			},
			New: NewNumberOfAuthors,
		},
		{
			MetricMeta: MetricMeta{
				MetricName:        KindWeeksWithCommits,
				MetricDisplayName: "Weeks with Commits",
				MetricDescription: "Number of distinct calendar weeks (Monday based) in which the file changed.",
				MetricType:        TypeDistinct,
			},
			New: NewWeeksWithCommits,
		},
		{
			MetricMeta: MetricMeta{
				MetricName:        KindRangeOfWeeksWithCommits,
				MetricDisplayName: "Range of Weeks with Commits",
				MetricDescription: "Calendar weeks from the first to the last change of the file, both included.",
				MetricType:        TypeRange,
			},
			New: NewRangeOfWeeksWithCommits,
		},
		{
			MetricMeta: MetricMeta{
				MetricName:        KindAddedLines,
				MetricDisplayName: "Added Lines",
				MetricDescription: "Total lines added to the file. Zero when the log carries no line statistics.",
				MetricType:        TypeSum,
			},
			New: NewAddedLines,
		},
		{
			MetricMeta: MetricMeta{
				MetricName:        KindDeletedLines,
				MetricDisplayName: "Deleted Lines",
				MetricDescription: "Total lines removed from the file. Zero when the log carries no line statistics.",
				MetricType:        TypeSum,
			},
			New: NewDeletedLines,
		},
		{
			MetricMeta: MetricMeta{
				MetricName:        KindCodeChurn,
				MetricDisplayName: "Code Churn",
				MetricDescription: "Added plus deleted lines over the whole history.",
				MetricType:        TypeSum,
			},
			New: NewCodeChurn,
		},
		{
			MetricMeta: MetricMeta{
				MetricName:        KindNumberOfRenames,
				MetricDisplayName: "Number of Renames",
				MetricDescription: "Number of commits that moved the file to its current identifier.",
				MetricType:        TypeCount,
			},
			New: NewNumberOfRenames,
		},
		{
			MetricMeta: MetricMeta{
				MetricName:        KindIsDeleted,
				MetricDisplayName: "Is Deleted",
				MetricDescription: "1 when the latest change of the file deleted it, 0 otherwise.",
				MetricType:        TypeFlag,
			},
			New: NewIsDeleted,
		},
	}
}

// DefaultCatalog returns a catalog with every built-in metric kind.
func DefaultCatalog() *Catalog {
	return MustCatalog(DefaultDefinitions()...)
}
