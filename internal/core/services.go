package core

type Services struct {
	Server         *ServerService
	Job            *JobService
	History        *HistoryService
	MigrationTask  *MigrationTaskService
	BackgroundTask *BackgroundTaskService
	NodeStats      *NodeStatsService
}

func NewServices(db DB) *Services {
	return &Services{
		Server:         NewServerService(db),
		Job:            NewJobService(db),
		History:        NewHistoryService(db),
		MigrationTask:  NewMigrationTaskService(db),
		BackgroundTask: NewBackgroundTaskService(db),
		NodeStats:      NewNodeStatsService(db),
	}
}
