package lcu

// Summoner is the identity of the player signed into the client.
type Summoner struct {
	AccountID                   int64  `json:"accountId"`
	SummonerID                  int64  `json:"summonerId"`
	PUUID                       string `json:"puuid"`
	DisplayName                 string `json:"displayName"`
	GameName                    string `json:"gameName"`
	TagLine                     string `json:"tagLine"`
	InternalName                string `json:"internalName"`
	ProfileIconID               int    `json:"profileIconId"`
	SummonerLevel               int    `json:"summonerLevel"`
	PercentCompleteForNextLevel int    `json:"percentCompleteForNextLevel"`
	XPSinceLastLevel            int    `json:"xpSinceLastLevel"`
	XPUntilNextLevel            int    `json:"xpUntilNextLevel"`
}

// RiotID returns gameName#tagLine, falling back to the legacy display name.
func (s Summoner) RiotID() string {
	if s.GameName == "" {
		return s.DisplayName
	}
	if s.TagLine == "" {
		return s.GameName
	}
	return s.GameName + "#" + s.TagLine
}

// RunePage is a rune page as stored by the client.
type RunePage struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Current         bool    `json:"current"`
	IsActive        bool    `json:"isActive"`
	IsDeletable     bool    `json:"isDeletable"`
	IsEditable      bool    `json:"isEditable"`
	IsValid         bool    `json:"isValid"`
	LastModified    int64   `json:"lastModified"`
	Order           int     `json:"order"`
	PrimaryStyleID  int     `json:"primaryStyleId"`
	SubStyleID      int     `json:"subStyleId"`
	SelectedPerkIDs []int64 `json:"selectedPerkIds"`
}

// Draft converts a stored page back into a creatable draft.
func (p RunePage) Draft() NewRunePage {
	perks := make([]int64, len(p.SelectedPerkIDs))
	copy(perks, p.SelectedPerkIDs)
	return NewRunePage{
		Name:            p.Name,
		PrimaryStyleID:  p.PrimaryStyleID,
		SubStyleID:      p.SubStyleID,
		SelectedPerkIDs: perks,
		Current:         p.Current,
	}
}

// NewRunePage is the draft accepted by the create endpoint.
type NewRunePage struct {
	Name            string  `json:"name"`
	PrimaryStyleID  int     `json:"primaryStyleId"`
	SubStyleID      int     `json:"subStyleId"`
	SelectedPerkIDs []int64 `json:"selectedPerkIds"`
	Current         bool    `json:"current"`
}
