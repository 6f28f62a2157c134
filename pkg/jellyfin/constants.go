package jellyfin

// ItemType identifies the kind of a library item.
type ItemType string

// Item types known to the server. The set is open: servers may introduce
// new types, so unknown values must be passed through, not rejected.
const (
	ItemTypeAudio       ItemType = "Audio"
	ItemTypeAudioBook   ItemType = "AudioBook"
	ItemTypeBook        ItemType = "Book"
	ItemTypeBoxSet      ItemType = "BoxSet"
	ItemTypeChannel     ItemType = "Channel"
	ItemTypeEpisode     ItemType = "Episode"
	ItemTypeFolder      ItemType = "Folder"
	ItemTypeGenre       ItemType = "Genre"
	ItemTypeMovie       ItemType = "Movie"
	ItemTypeMusicAlbum  ItemType = "MusicAlbum"
	ItemTypeMusicArtist ItemType = "MusicArtist"
	ItemTypeMusicGenre  ItemType = "MusicGenre"
	ItemTypeMusicVideo  ItemType = "MusicVideo"
	ItemTypePerson      ItemType = "Person"
	ItemTypePhoto       ItemType = "Photo"
	ItemTypePlaylist    ItemType = "Playlist"
	ItemTypeProgram     ItemType = "Program"
	ItemTypeRecording   ItemType = "Recording"
	ItemTypeSeason      ItemType = "Season"
	ItemTypeSeries      ItemType = "Series"
	ItemTypeStudio      ItemType = "Studio"
	ItemTypeTrailer     ItemType = "Trailer"
	ItemTypeTvChannel   ItemType = "TvChannel"
	ItemTypeUserView    ItemType = "UserView"
	ItemTypeVideo       ItemType = "Video"
)

// ImageType identifies an artwork slot on an item.
type ImageType string

// Artwork types served by the image endpoints.
const (
	ImagePrimary    ImageType = "Primary"
	ImageArt        ImageType = "Art"
	ImageBackdrop   ImageType = "Backdrop"
	ImageBanner     ImageType = "Banner"
	ImageLogo       ImageType = "Logo"
	ImageThumb      ImageType = "Thumb"
	ImageDisc       ImageType = "Disc"
	ImageBox        ImageType = "Box"
	ImageScreenshot ImageType = "Screenshot"
	ImageChapter    ImageType = "Chapter"
	ImageProfile    ImageType = "Profile"
)

// PlayCommand selects when queued media starts in a PlayMedia request.
type PlayCommand string

// Play commands accepted by Sessions/{id}/Playing.
const (
	PlayNow         PlayCommand = "PlayNow"
	PlayNext        PlayCommand = "PlayNext"
	PlayLast        PlayCommand = "PlayLast"
	PlayInstantMix  PlayCommand = "PlayInstantMix"
	PlayShuffle     PlayCommand = "PlayShuffle"
)
