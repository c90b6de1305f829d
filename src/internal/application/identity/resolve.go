package identity

import (
	"context"
	"errors"
	"time"

	"github.com/beanloop/loyalty_bridge/src/internal/domain/identity"
	"github.com/beanloop/loyalty_bridge/src/internal/domain/reward"
	"github.com/beanloop/loyalty_bridge/src/internal/domain/shared"
)

// ===========================
// ResolveIdentity Use Case
// ===========================

// ResolveIdentityUseCase 身份解析 Use Case
//
// 職責：確定性、帶快取地把 Loopy 身份解析為 POS 身份
// 1. 已有映射 → 直接返回（無網路調用）
// 2. 無映射 → POS 目錄查找：先 email 後 phone，首個命中即採用
// 3. 均未命中 → 以補齊佔位值的聯絡資訊創建新 POS 帳戶
//    （絕不因欄位缺失而沿用某個無關的既有帳戶）
// 4. 原子持久化映射後返回
//
// 並發收斂：同一 loyaltyID 的首次解析可能並發發生。映射插入
// 依賴存儲層的 insert-if-absent：輸家丟棄自己取得的 POS 帳戶
// 引用，重讀贏家的映射並返回它。輸家創建的 POS 帳戶留作孤兒
// ——無映射指向它，之後永遠不會被入帳，審計時憑佔位 email
// 可辨識。
//
// 錯誤處理：
// - 目錄查找/創建的網路錯誤 → ErrIdentityUnresolved（可重試）
// - 映射存儲錯誤 → ErrStoreUnavailable
type ResolveIdentityUseCase struct {
	mappingRepo identity.MappingRepository
	directory   identity.POSDirectory
	txManager   shared.TransactionManager
	callTimeout time.Duration
}

// NewResolveIdentityUseCase 創建 Use Case 實例
//
// 參數：
//   callTimeout - 單次目錄網路調用的時間上限
func NewResolveIdentityUseCase(
	mappingRepo identity.MappingRepository,
	directory identity.POSDirectory,
	txManager shared.TransactionManager,
	callTimeout time.Duration,
) *ResolveIdentityUseCase {
	return &ResolveIdentityUseCase{
		mappingRepo: mappingRepo,
		directory:   directory,
		txManager:   txManager,
		callTimeout: callTimeout,
	}
}

// Resolve 將 Loopy 身份解析為 POS 帳戶 ID
//
// 執行流程：
// 1. 查快取映射（命中即返回，無網路調用）
// 2. 目錄查找（email 優先、phone 次之）
// 3. 未命中則創建（聯絡欄位缺失補合成佔位值）
// 4. 原子插入映射；衝突時收斂到贏家
//
// 冪等性：同一 loyaltyID 無論調用多少次、多少並發，
// 最終恰好一條映射，返回值恆定。
func (uc *ResolveIdentityUseCase) Resolve(
	ctx context.Context,
	loyaltyID string,
	contact reward.Contact,
) (string, error) {
	// 1. 已有映射：直接返回
	existing, err := uc.mappingRepo.FindByLoyaltyID(nil, loyaltyID)
	if err == nil {
		return existing.POSAccountID(), nil
	}
	if !errors.Is(err, identity.ErrMappingNotFound) {
		return "", reward.ErrStoreUnavailable.WithContext(
			"operation", "mapping_lookup",
			"loyalty_id", loyaltyID,
			"cause", err.Error(),
		)
	}

	// 2. POS 目錄查找（先 email 後 phone，首個命中即採用）
	posAccountID, err := uc.lookupDirectory(ctx, contact)
	if err != nil {
		if !errors.Is(err, identity.ErrPOSAccountNotFound) {
			return "", reward.ErrIdentityUnresolved.WithContext(
				"operation", "directory_lookup",
				"loyalty_id", loyaltyID,
				"cause", err.Error(),
			)
		}

		// 3. 均未命中：創建新 POS 帳戶（補齊合成佔位值）
		posAccountID, err = uc.createAccount(ctx, loyaltyID, contact)
		if err != nil {
			return "", reward.ErrIdentityUnresolved.WithContext(
				"operation", "directory_create",
				"loyalty_id", loyaltyID,
				"cause", err.Error(),
			)
		}
	}

	// 4. 原子持久化映射
	mapping, err := identity.NewIdentityMapping(loyaltyID, posAccountID)
	if err != nil {
		return "", err
	}

	err = uc.txManager.InTransaction(func(txCtx shared.TransactionContext) error {
		return uc.mappingRepo.Insert(txCtx, mapping)
	})
	if err != nil {
		if errors.Is(err, identity.ErrMappingExists) {
			// 輸掉首次解析競爭：丟棄自己的 POS 帳戶引用，
			// 重讀贏家的映射並收斂到它
			winner, rerr := uc.mappingRepo.FindByLoyaltyID(nil, loyaltyID)
			if rerr != nil {
				return "", reward.ErrStoreUnavailable.WithContext(
					"operation", "mapping_reread",
					"loyalty_id", loyaltyID,
					"cause", rerr.Error(),
				)
			}
			return winner.POSAccountID(), nil
		}
		return "", reward.ErrStoreUnavailable.WithContext(
			"operation", "mapping_insert",
			"loyalty_id", loyaltyID,
			"cause", err.Error(),
		)
	}

	return posAccountID, nil
}

// lookupDirectory 在 POS 目錄中按聯絡資訊查找既有帳戶
//
// 查找次序：email 優先、phone 次之，首個命中即採用。
// 次序策略在這裡（核心）而非目錄實作中：每次查找只帶單一欄位
// 的 Contact，目錄按已填欄位比對。
//
// 返回：ErrPOSAccountNotFound 表示兩個欄位都未命中（或都缺失）
func (uc *ResolveIdentityUseCase) lookupDirectory(
	ctx context.Context,
	contact reward.Contact,
) (string, error) {
	if contact.HasEmail() {
		callCtx, cancel := context.WithTimeout(ctx, uc.callTimeout)
		posAccountID, err := uc.directory.FindByContact(callCtx, reward.NewContact(contact.Email(), "", ""))
		cancel()
		if err == nil {
			return posAccountID, nil
		}
		if !errors.Is(err, identity.ErrPOSAccountNotFound) {
			return "", err
		}
	}

	if contact.HasPhone() {
		callCtx, cancel := context.WithTimeout(ctx, uc.callTimeout)
		posAccountID, err := uc.directory.FindByContact(callCtx, reward.NewContact("", contact.Phone(), ""))
		cancel()
		if err == nil {
			return posAccountID, nil
		}
		if !errors.Is(err, identity.ErrPOSAccountNotFound) {
			return "", err
		}
	}

	return "", identity.ErrPOSAccountNotFound
}

// createAccount 在 POS 端創建新帳戶
// 聯絡欄位缺失時補合成佔位值（loopy_<id>@customer.local 等），
// 佔位值在審計日誌裡一望即知是合成的
func (uc *ResolveIdentityUseCase) createAccount(
	ctx context.Context,
	loyaltyID string,
	contact reward.Contact,
) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, uc.callTimeout)
	defer cancel()

	return uc.directory.Create(callCtx, contact.WithPlaceholders(loyaltyID))
}
