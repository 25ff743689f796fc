package config

type WorkerKeyStruct struct {
	ArchiveCheatsQueue  string
	ArchiveResultsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	ArchiveCheatsQueue:  "archive_cheats_queue",
	ArchiveResultsQueue: "archive_results_queue",
}
