package events

// Event enumerates pub/sub topics inside the board gateway.
type Event string

const (
	// EventBoardUpdate carries the merged hsx.SummaryRow after a board mutation.
	EventBoardUpdate Event = "board.update"
	// EventDetailUpdate carries the merged hsx.StockDetail for one symbol.
	EventDetailUpdate Event = "detail.update"
	// EventStreamState carries a stream.State transition for the push connection.
	EventStreamState Event = "stream.state"
	// EventCredential carries the current session token; empty string on logout.
	EventCredential Event = "session.credential"
)
