package cart

// NoticeKind identifies user-facing feedback produced by a cart mutation.
type NoticeKind string

const (
	NoticeNone            NoticeKind = ""
	NoticeItemAdded       NoticeKind = "item_added"
	NoticeQuantityUpdated NoticeKind = "quantity_updated"
	NoticeItemRemoved     NoticeKind = "item_removed"
	NoticeCartCleared     NoticeKind = "cart_cleared"
	NoticeCartMerged      NoticeKind = "cart_merged"
)

// Notice is returned by mutations for the client to render; the store never
// presents anything itself.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
	ItemID  string     `json:"cartItemId,omitempty"`
}

// Empty reports whether there is nothing to show.
func (n Notice) Empty() bool {
	return n.Kind == NoticeNone
}

func newNotice(kind NoticeKind, itemID string) Notice {
	return Notice{Kind: kind, Message: noticeMessages[kind], ItemID: itemID}
}

var noticeMessages = map[NoticeKind]string{
	NoticeItemAdded:       "Photo added to cart.",
	NoticeQuantityUpdated: "Cart quantity updated.",
	NoticeItemRemoved:     "Photo removed from cart.",
	NoticeCartCleared:     "Cart cleared.",
	NoticeCartMerged:      "Your saved cart has been merged.",
}
