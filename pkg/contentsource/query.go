package contentsource

const roomFields = `
fragment RoomFields on Room {
  id
  databaseId
  slug
  title
  content
  excerpt
  featuredImage { node { sourceUrl } }
  roomDetails {
    status
    address
    latitude
    longitude
    phone
    website
    price
    rating
    reviewCount
    schedule
    amenities
  }
  countries { nodes { name slug } }
  states { nodes { name slug } }
  cities { nodes { name slug } }
  themes { nodes { name slug } }
}
`

const roomsPageQuery = `
query RoomsPage($first: Int!, $after: String) {
  rooms(first: $first, after: $after, where: { status: PUBLISH }) {
    pageInfo { hasNextPage endCursor }
    nodes { ...RoomFields }
  }
}
` + roomFields

const roomByIDQuery = `
query RoomByID($id: ID!, $idType: RoomIdType!) {
  room(id: $id, idType: $idType) { ...RoomFields }
}
` + roomFields

// lookup id types understood by the CMS schema
const (
	idTypeGlobal   = "ID"
	idTypeDatabase = "DATABASE_ID"
	idTypeSlug     = "SLUG"
)
