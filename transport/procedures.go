package transport

const ServiceName = "agentcomm.v1.HubService"

// Procedure paths.
const (
	ProcedureRegister     = "/" + ServiceName + "/Register"
	ProcedureUnregister   = "/" + ServiceName + "/Unregister"
	ProcedureSend         = "/" + ServiceName + "/Send"
	ProcedureReply        = "/" + ServiceName + "/Reply"
	ProcedureCreateThread = "/" + ServiceName + "/CreateThread"
	ProcedureJoinThread   = "/" + ServiceName + "/JoinThread"
	ProcedureGetMessages  = "/" + ServiceName + "/GetMessages"
	ProcedureGetThread    = "/" + ServiceName + "/GetThread"
	ProcedureStats        = "/" + ServiceName + "/Stats"
)
